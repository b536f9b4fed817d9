package xtts

import (
	"context"

	"github.com/dgnsrekt/xtts-tts/platform"
	"github.com/dgnsrekt/xtts-tts/tts"
)

// Domain identifies the integration to the host.
const Domain = "xtts_tts"

// Configuration keys.
const (
	ConfHost       = "host"
	ConfPort       = "port"
	ConfLanguage   = "language"
	ConfSpeakerWAV = "speaker_wav"
	ConfEndpoint   = "endpoint"
)

// PlatformSchema extends the host's base schema with the XTTS keys.
var PlatformSchema = platform.BaseSchema.Extend(
	platform.String(ConfHost).Required(),
	platform.Port(ConfPort).Default(tts.DefaultPort),
	platform.OneOf(ConfLanguage, tts.SupportedLanguages...).Default(tts.DefaultLanguage),
	platform.String(ConfSpeakerWAV).Required(),
	platform.OneOf(ConfEndpoint, tts.Endpoints...).Default(tts.EndpointTTSToAudio),
)

// Platform registers the XTTS provider with a host.
type Platform struct {
	opts []Option
}

// NewPlatform returns the XTTS platform. opts are applied to every client it
// builds.
func NewPlatform(opts ...Option) *Platform {
	return &Platform{opts: opts}
}

func (p *Platform) Domain() string { return Domain }

func (p *Platform) Schema() platform.Schema { return PlatformSchema }

// Setup has nothing to initialize.
func (p *Platform) Setup(_ context.Context, h *platform.Host, _ map[string]any) error {
	h.Logger().Debug("Set up XTTS TTS component", "domain", Domain)
	return nil
}

// SetupEntry has nothing to initialize.
func (p *Platform) SetupEntry(_ context.Context, h *platform.Host, entry platform.Entry) error {
	h.Logger().Debug("Set up XTTS TTS entry", "domain", Domain, "entry", entry.ID, "title", entry.Title)
	return nil
}

// GetEngine builds a Client from a validated configuration block.
func (p *Platform) GetEngine(_ context.Context, h *platform.Host, cfg map[string]any, _ map[string]any) (tts.Provider, error) {
	h.Logger().Debug("Creating XTTS engine",
		"host", cfg[ConfHost],
		"port", cfg[ConfPort],
		"language", cfg[ConfLanguage],
		"speaker_wav", cfg[ConfSpeakerWAV])

	conf := tts.DefaultConfig()
	if err := platform.Decode(cfg, &conf); err != nil {
		return nil, err
	}

	c, err := New(conf, h.Logger(), p.opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ platform.Platform = (*Platform)(nil)
