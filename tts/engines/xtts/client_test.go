package xtts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/xtts-tts/internal/audio/wav"
	"github.com/dgnsrekt/xtts-tts/tts"
)

// configFor points a config at srv.
func configFor(t *testing.T, srv *httptest.Server) tts.Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split host: %v", err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	cfg := tts.DefaultConfig()
	cfg.Host = host
	cfg.Port = p
	cfg.SpeakerWAV = "voice.wav"
	return cfg
}

func newTestClient(t *testing.T, cfg tts.Config, opts ...Option) (*Client, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	c, err := New(cfg, logger, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, &buf
}

func TestNewPerformsNoIO(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	if hits.Load() != 0 {
		t.Errorf("Expected no requests during construction, got %d", hits.Load())
	}
	if c.Name() != "XTTS" {
		t.Errorf("Expected name XTTS, got %q", c.Name())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*tts.Config)
		want   error
	}{
		{"missing host", func(c *tts.Config) { c.Host = "" }, tts.ErrMissingConfig},
		{"missing speaker", func(c *tts.Config) { c.SpeakerWAV = "" }, tts.ErrMissingConfig},
		{"bad port", func(c *tts.Config) { c.Port = 0 }, tts.ErrInvalidConfig},
		{"bad language", func(c *tts.Config) { c.Language = "de" }, tts.ErrUnsupportedLanguage},
		{"bad endpoint", func(c *tts.Config) { c.Endpoint = "speak" }, tts.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tts.DefaultConfig()
			cfg.Host = "127.0.0.1"
			cfg.SpeakerWAV = "voice.wav"
			tt.modify(&cfg)

			if _, err := New(cfg, nil); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.SpeakerWAV = "voice.wav"
	c, _ := newTestClient(t, cfg)

	if c.DefaultLanguage() != "en" {
		t.Errorf("Expected default language en, got %q", c.DefaultLanguage())
	}
	langs := c.SupportedLanguages()
	if len(langs) != 1 || langs[0] != "en" {
		t.Errorf("Expected [en], got %v", langs)
	}

	langs[0] = "xx"
	if c.SupportedLanguages()[0] != "en" {
		t.Error("SupportedLanguages exposed internal state")
	}
}

func TestGetTTSAudioSuccess(t *testing.T) {
	payload := []byte("RIFF\x04\x00\x00\x00WAVE")

	var got tts.SpeechRequest
	var contentType, method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	format, data := c.GetTTSAudio(context.Background(), "hello world", "en", tts.Options{"ignored": true})

	if format != "wav" {
		t.Errorf("Expected format wav, got %q", format)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Expected body returned unchanged, got %q", data)
	}
	if method != http.MethodPost || path != "/tts_to_audio" {
		t.Errorf("Expected POST /tts_to_audio, got %s %s", method, path)
	}
	if contentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", contentType)
	}
	want := tts.SpeechRequest{Text: "hello world", SpeakerWAV: "voice.wav", Language: "en"}
	if got != want {
		t.Errorf("Expected request %+v, got %+v", want, got)
	}
}

func TestGetTTSAudioNonWAVBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not audio"))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	format, data := c.GetTTSAudio(context.Background(), "hi", "en", nil)
	if format != "wav" || string(data) != "not audio" {
		t.Errorf("Expected body passed through, got %q %q", format, data)
	}
}

func TestGetTTSAudioStreamEndpoint(t *testing.T) {
	var query url.Values
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, query = r.Method, r.URL.Path, r.URL.Query()
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	cfg := configFor(t, srv)
	cfg.Endpoint = tts.EndpointTTSStream
	c, _ := newTestClient(t, cfg)

	format, data := c.GetTTSAudio(context.Background(), "hello & goodbye", "en", nil)
	if format != "wav" || string(data) != "audio" {
		t.Fatalf("Unexpected result %q %q", format, data)
	}
	if method != http.MethodGet || path != "/tts_stream" {
		t.Errorf("Expected GET /tts_stream, got %s %s", method, path)
	}
	if query.Get("text") != "hello & goodbye" || query.Get("speaker_wav") != "voice.wav" || query.Get("language") != "en" {
		t.Errorf("Unexpected query: %v", query)
	}
}

func TestGetTTSAudioFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tts_to_audio", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("redirected"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	format, data := c.GetTTSAudio(context.Background(), "hi", "en", nil)
	if format != "wav" || string(data) != "redirected" {
		t.Errorf("Expected redirected body, got %q %q", format, data)
	}
}

func TestGetTTSAudioErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "speaker not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, buf := newTestClient(t, configFor(t, srv))
	format, data := c.GetTTSAudio(context.Background(), "hello", "en", nil)

	if format != "" || data != nil {
		t.Errorf("Expected empty result, got %q %v", format, data)
	}
	out := buf.String()
	for _, want := range []string{"Error on load URL", "500", "/tts_to_audio", "speaker not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got %q", want, out)
		}
	}
}

func TestGetTTSAudioConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := configFor(t, srv)
	srv.Close()

	c, buf := newTestClient(t, cfg)
	format, data := c.GetTTSAudio(context.Background(), "hello", "en", nil)

	if format != "" || data != nil {
		t.Errorf("Expected empty result, got %q %v", format, data)
	}
	if !strings.Contains(buf.String(), "Error on load URL") {
		t.Errorf("Expected transport failure to be logged, got %q", buf.String())
	}
}

func TestGetTTSAudioTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := newTestClient(t, configFor(t, srv), WithTimeout(50*time.Millisecond))

	start := time.Now()
	format, data := c.GetTTSAudio(context.Background(), "hello", "en", nil)
	if format != "" || data != nil {
		t.Errorf("Expected empty result, got %q %v", format, data)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("Timeout was not applied")
	}
}

type panicTransport struct{}

func (panicTransport) RoundTrip(*http.Request) (*http.Response, error) { panic("boom") }

func TestGetTTSAudioRecoversPanic(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.SpeakerWAV = "voice.wav"
	c, buf := newTestClient(t, cfg, WithHTTPClient(&http.Client{Transport: panicTransport{}}))

	format, data := c.GetTTSAudio(context.Background(), "hello", "en", nil)
	if format != "" || data != nil {
		t.Errorf("Expected empty result, got %q %v", format, data)
	}
	if !strings.Contains(buf.String(), "Unexpected error") {
		t.Errorf("Expected panic to be logged, got %q", buf.String())
	}
}

func TestSynthesizeClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	ctx := context.Background()

	_, err := c.Synthesize(ctx, "hello", "en")
	if !tts.IsBadResponse(err) || tts.StatusCode(err) != http.StatusNotFound {
		t.Errorf("Expected bad response 404, got %v", err)
	}

	_, err = c.Synthesize(ctx, "", "en")
	if !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	cfg := configFor(t, closed)
	closed.Close()
	c2, _ := newTestClient(t, cfg)
	if _, err := c2.Synthesize(ctx, "hello", "en"); !tts.IsTransport(err) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestSynthesizeDefaultsLanguage(t *testing.T) {
	var got tts.SpeechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	if _, err := c.Synthesize(context.Background(), "hello", ""); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got.Language != "en" {
		t.Errorf("Expected configured language, got %q", got.Language)
	}
}

func TestGetTTSAudioEmptyTextMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	if format, data := c.GetTTSAudio(context.Background(), "", "en", nil); format != "" || data != nil {
		t.Errorf("Expected empty result, got %q %v", format, data)
	}
	if hits.Load() != 0 {
		t.Errorf("Expected no request, got %d", hits.Load())
	}
}

func TestGetTTSAudioEndToEnd(t *testing.T) {
	body := wav.Encode(make([]byte, 480), 24000, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tts.SpeechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text != "hello world" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	format, data := c.GetTTSAudio(context.Background(), "hello world", "en", nil)
	if format != "wav" || !bytes.Equal(data, body) {
		t.Fatalf("Unexpected result %q (%d bytes)", format, len(data))
	}

	parsed, err := wav.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.SampleRate != 24000 || parsed.Duration() != 10*time.Millisecond {
		t.Errorf("Unexpected WAV: %d Hz, %v", parsed.SampleRate, parsed.Duration())
	}
}

func TestDefaultTimeout(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.SpeakerWAV = "voice.wav"
	c, _ := newTestClient(t, cfg)

	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Expected %v timeout, got %v", DefaultTimeout, c.httpClient.Timeout)
	}
	if DefaultTimeout != 30*time.Second {
		t.Errorf("Expected a 30s request bound, got %v", DefaultTimeout)
	}
}

func TestWithTimeoutOptionOrder(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.SpeakerWAV = "voice.wav"

	tests := []struct {
		name  string
		order func(hc *http.Client) []Option
	}{
		{"timeout after client", func(hc *http.Client) []Option {
			return []Option{WithHTTPClient(hc), WithTimeout(time.Second)}
		}},
		{"timeout before client", func(hc *http.Client) []Option {
			return []Option{WithTimeout(time.Second), WithHTTPClient(hc)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := &http.Client{Timeout: time.Minute}
			c, _ := newTestClient(t, cfg, tt.order(shared)...)

			if c.httpClient.Timeout != time.Second {
				t.Errorf("Expected 1s timeout, got %v", c.httpClient.Timeout)
			}
			if shared.Timeout != time.Minute {
				t.Errorf("Caller's client was modified: %v", shared.Timeout)
			}
		})
	}
}

func TestEachCallOpensOwnConnection(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio"))
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	c, _ := newTestClient(t, configFor(t, srv))
	const calls = 3
	for i := 0; i < calls; i++ {
		if format, _ := c.GetTTSAudio(context.Background(), "hello", "en", nil); format != "wav" {
			t.Fatalf("call %d: expected audio", i)
		}
	}

	if got := conns.Load(); got != calls {
		t.Errorf("Expected %d connections for %d calls, got %d", calls, calls, got)
	}
}
