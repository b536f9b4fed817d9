package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/xtts-tts/tts"
)

var (
	// ErrUnknownPlatform is returned for a domain no platform registered.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrDuplicatePlatform is returned when a domain is registered twice.
	ErrDuplicatePlatform = errors.New("platform already registered")
	// ErrEngineNotLoaded is returned when speaking through a domain whose
	// engine was never loaded.
	ErrEngineNotLoaded = errors.New("engine not loaded")
	// ErrNoAudio is returned when a provider produced no audio.
	ErrNoAudio = errors.New("no audio produced")
)

// Entry is a UI-created configuration entry for a platform.
type Entry struct {
	ID     string
	Domain string
	Title  string
	Data   map[string]any
}

// Platform is what a speech integration exposes to the host.
type Platform interface {
	// Domain is the integration's unique identifier.
	Domain() string

	// Schema validates the integration's configuration block.
	Schema() Schema

	// Setup is the component-level hook, called once with the top-level
	// configuration.
	Setup(ctx context.Context, h *Host, cfg map[string]any) error

	// SetupEntry is called for every configuration entry of the domain.
	SetupEntry(ctx context.Context, h *Host, entry Entry) error

	// GetEngine builds a provider from a validated configuration. discovery
	// carries optional discovery data and may be nil.
	GetEngine(ctx context.Context, h *Host, cfg map[string]any, discovery map[string]any) (tts.Provider, error)
}

// Host is a minimal home-automation host: it keeps the registered platforms
// and the engines loaded from them, and dispatches speech requests.
type Host struct {
	logger *log.Logger

	mu        sync.RWMutex
	platforms map[string]Platform
	engines   map[string]tts.Provider
}

// NewHost creates an empty host. A nil logger means log.Default().
func NewHost(logger *log.Logger) *Host {
	if logger == nil {
		logger = log.Default()
	}
	return &Host{
		logger:    logger,
		platforms: make(map[string]Platform),
		engines:   make(map[string]tts.Provider),
	}
}

// Logger returns the host logger.
func (h *Host) Logger() *log.Logger { return h.logger }

// Register adds a platform under its domain.
func (h *Host) Register(p Platform) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	domain := p.Domain()
	if _, ok := h.platforms[domain]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlatform, domain)
	}
	h.platforms[domain] = p
	h.logger.Debug("Registered platform", "domain", domain)
	return nil
}

// Platforms returns the registered domains, sorted.
func (h *Host) Platforms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.platforms))
	for d := range h.platforms {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (h *Host) platform(domain string) (Platform, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	p, ok := h.platforms[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, domain)
	}
	return p, nil
}

// Setup runs the component-level hook of domain.
func (h *Host) Setup(ctx context.Context, domain string, cfg map[string]any) error {
	p, err := h.platform(domain)
	if err != nil {
		return err
	}
	return p.Setup(ctx, h, cfg)
}

// SetupEntry runs the entry-level hook of the entry's domain.
func (h *Host) SetupEntry(ctx context.Context, entry Entry) error {
	p, err := h.platform(entry.Domain)
	if err != nil {
		return err
	}
	return p.SetupEntry(ctx, h, entry)
}

// LoadEngine validates a platform configuration block and builds its engine.
// The block's "platform" key selects the domain. The engine replaces any
// previously loaded one for the same domain.
func (h *Host) LoadEngine(ctx context.Context, raw map[string]any, discovery map[string]any) (tts.Provider, error) {
	domain, _ := raw["platform"].(string)
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, fmt.Errorf("%w: required key not provided: platform", ErrInvalidConfig)
	}

	p, err := h.platform(domain)
	if err != nil {
		return nil, err
	}

	cfg, err := p.Schema().Validate(raw)
	if err != nil {
		h.logger.Error("Invalid platform configuration", "domain", domain, "error", err)
		return nil, err
	}

	engine, err := p.GetEngine(ctx, h, cfg, discovery)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine %s: %w", domain, err)
	}
	if engine == nil {
		return nil, fmt.Errorf("failed to load engine %s: platform returned no engine", domain)
	}

	h.mu.Lock()
	h.engines[domain] = engine
	h.mu.Unlock()

	h.logger.Info("Loaded speech engine", "domain", domain, "provider", engine.Name())
	return engine, nil
}

// Engine returns the engine loaded for domain.
func (h *Host) Engine(domain string) (tts.Provider, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.engines[domain]
	return e, ok
}

// Speak asks the engine of domain for audio. An empty language resolves to
// the engine's default; any other is canonicalized ("EN" becomes "en") and
// rejected without calling the engine unless the engine lists it.
func (h *Host) Speak(ctx context.Context, domain, message, language string, options tts.Options) (tts.SpeechResult, error) {
	engine, ok := h.Engine(domain)
	if !ok {
		return tts.SpeechResult{}, fmt.Errorf("%w: %s", ErrEngineNotLoaded, domain)
	}

	if language == "" {
		language = engine.DefaultLanguage()
	} else {
		canonical, err := tts.CanonicalLanguage(language)
		if err != nil {
			return tts.SpeechResult{}, err
		}
		language = canonical
	}
	if !tts.IsSupportedLanguage(engine, language) {
		return tts.SpeechResult{}, fmt.Errorf("%w: %q not in %v", tts.ErrUnsupportedLanguage, language, engine.SupportedLanguages())
	}

	result := tts.ResultOf(engine.GetTTSAudio(ctx, message, language, options))
	if !result.OK() {
		return tts.SpeechResult{}, fmt.Errorf("%w: %s", ErrNoAudio, domain)
	}
	return result, nil
}
