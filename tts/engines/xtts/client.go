// Package xtts implements a speech provider backed by an XTTS API server.
package xtts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/xtts-tts/internal/audio/wav"
	"github.com/dgnsrekt/xtts-tts/tts"
)

const (
	// ProviderName is the name the provider registers under.
	ProviderName = "XTTS"

	// DefaultTimeout bounds a single request/response cycle.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is kept for logging.
	maxErrorBody = 4 << 10
)

// Client talks to a single XTTS server. It holds no state between calls
// beyond its configuration, so it is safe for concurrent use.
type Client struct {
	cfg        tts.Config
	logger     *log.Logger
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests. The client is
// never modified; a timeout set with WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout replaces the per-request timeout, regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New validates cfg and builds a client. It performs no network I/O.
func New(cfg tts.Config, logger *log.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	c := &Client{
		cfg:        cfg,
		logger:     logger.WithPrefix(ProviderName),
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	c.logger.Debug("Initialized provider",
		"host", cfg.Host,
		"port", cfg.Port,
		"lang", cfg.Language,
		"speaker", cfg.SpeakerWAV,
		"endpoint", cfg.Endpoint)
	if cfg.Endpoint == tts.EndpointTTSStream {
		c.logger.Info("Using legacy GET endpoint", "url", cfg.URL())
	}

	return c, nil
}

// newHTTPClient returns a client that opens a fresh connection per request
// and follows redirects.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			DisableKeepAlives:     true,
			ResponseHeaderTimeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// DefaultLanguage returns the configured language.
func (c *Client) DefaultLanguage() string { return c.cfg.Language }

// SupportedLanguages returns the languages the provider accepts.
func (c *Client) SupportedLanguages() []string {
	return append([]string(nil), tts.SupportedLanguages...)
}

// Config returns a copy of the client configuration.
func (c *Client) Config() tts.Config { return c.cfg }

// GetTTSAudio synthesizes message and returns ("wav", audio). Any failure is
// logged and reported as ("", nil); options are accepted and ignored.
func (c *Client) GetTTSAudio(ctx context.Context, message, language string, options tts.Options) (format string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Unexpected error", "error", fmt.Sprint(r))
			format, data = "", nil
		}
	}()

	data, err := c.Synthesize(ctx, message, language)
	if err != nil {
		c.logFailure(err)
		return "", nil
	}
	return tts.FormatWAV, data
}

// Synthesize performs one request against the server and returns the raw
// response body. Errors are *tts.TTSError values classified as transport,
// bad response or unexpected.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if text == "" {
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "text cannot be empty", tts.ErrEmptyText)
	}
	if language == "" {
		language = c.cfg.Language
	}

	speech := tts.SpeechRequest{
		Text:       text,
		SpeakerWAV: c.cfg.SpeakerWAV,
		Language:   language,
	}

	req, err := c.newRequest(ctx, speech)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeUnexpected, "failed to build request", err).
			WithContext("url", c.cfg.URL())
	}

	c.logger.Debug("Attempting TTS request",
		"method", req.Method,
		"url", c.cfg.URL(),
		"text", speech.Text,
		"speaker_wav", speech.SpeakerWAV,
		"language", speech.Language)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeTransport, "error on load URL", err).
			WithContext("url", c.cfg.URL())
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("Got response", "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, tts.NewTTSError(tts.ErrorCodeBadResponse, fmt.Sprintf("error %d on load URL", resp.StatusCode), nil).
			WithContext("status", resp.StatusCode).
			WithContext("url", c.cfg.URL()).
			WithContext("body", string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeTransport, "failed to read audio", err).
			WithContext("url", c.cfg.URL())
	}

	c.logger.Debug("Successfully read audio data",
		"bytes", humanize.Bytes(uint64(len(data))),
		"duration", time.Since(start))
	c.logAudioHeader(data)

	return data, nil
}

// newRequest builds the request for the configured endpoint.
func (c *Client) newRequest(ctx context.Context, speech tts.SpeechRequest) (*http.Request, error) {
	switch c.cfg.Endpoint {
	case tts.EndpointTTSStream:
		u, err := url.Parse(c.cfg.URL())
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("text", speech.Text)
		q.Set("speaker_wav", speech.SpeakerWAV)
		q.Set("language", speech.Language)
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)

	default:
		body, err := json.Marshal(speech)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
}

// logAudioHeader logs the WAV header for diagnostics. The body is returned to
// the caller whether or not it parses.
func (c *Client) logAudioHeader(data []byte) {
	w, err := wav.Parse(data)
	if err != nil {
		head := data
		if len(head) > 16 {
			head = head[:16]
		}
		c.logger.Debug("Response does not look like WAV", "head", fmt.Sprintf("%q", head), "error", err)
		return
	}
	c.logger.Debug("WAV header",
		"sample_rate", w.SampleRate,
		"channels", w.Channels,
		"bits", w.BitsPerSample,
		"duration", w.Duration())
}

// logFailure logs err with whatever detail its classification carries.
func (c *Client) logFailure(err error) {
	te, ok := err.(*tts.TTSError)
	if !ok {
		c.logger.Error("Unexpected error", "error", err)
		return
	}

	switch te.Code {
	case tts.ErrorCodeBadResponse:
		c.logger.Error("Error on load URL",
			"status", te.Context["status"],
			"url", te.Context["url"],
			"body", te.Context["body"])
	case tts.ErrorCodeTransport:
		c.logger.Error("Error on load URL", "url", te.Context["url"], "error", te.Cause)
	case tts.ErrorCodeInvalidInput:
		c.logger.Warn("Rejected speech request", "error", te.Message)
	default:
		c.logger.Error("Unexpected error", "error", err)
	}
}

var _ tts.Provider = (*Client)(nil)
