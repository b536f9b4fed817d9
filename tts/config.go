package tts

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	// DefaultLanguage is used when no language is configured.
	DefaultLanguage = "en"
	// DefaultPort is the port the XTTS API server listens on out of the box.
	DefaultPort = 8020
	// FormatWAV is the only audio format the server produces.
	FormatWAV = "wav"

	// EndpointTTSToAudio is the JSON POST endpoint.
	EndpointTTSToAudio = "tts_to_audio"
	// EndpointTTSStream is the older query-string GET endpoint.
	EndpointTTSStream = "tts_stream"
)

// SupportedLanguages lists the languages the provider accepts.
var SupportedLanguages = []string{"en"}

// Endpoints lists the server endpoints a client may target.
var Endpoints = []string{EndpointTTSToAudio, EndpointTTSStream}

// Config contains the provider configuration for one platform entry.
type Config struct {
	// Server location
	Host string `yaml:"host" mapstructure:"host" env:"XTTS_HOST"`
	Port int    `yaml:"port" mapstructure:"port" env:"XTTS_PORT" envDefault:"8020"`

	// Voice settings
	Language   string `yaml:"language" mapstructure:"language" env:"XTTS_LANGUAGE" envDefault:"en"`
	SpeakerWAV string `yaml:"speaker_wav" mapstructure:"speaker_wav" env:"XTTS_SPEAKER_WAV"`

	// Endpoint selects between the POST and GET server APIs.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" env:"XTTS_ENDPOINT" envDefault:"tts_to_audio"`
}

// DefaultConfig returns a Config with defaults applied. Host and SpeakerWAV
// have no defaults and must be set before the config validates.
func DefaultConfig() Config {
	return Config{
		Port:     DefaultPort,
		Language: DefaultLanguage,
		Endpoint: EndpointTTSToAudio,
	}
}

// Validate checks if the configuration is valid. The language is normalized
// to its canonical BCP 47 form before the membership check.
func (c *Config) Validate() error {
	c.Host = strings.TrimSpace(c.Host)
	if c.Host == "" {
		return fmt.Errorf("%w: host", ErrMissingConfig)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidConfig, c.Port)
	}

	lang, err := NormalizeLanguage(c.Language)
	if err != nil {
		return err
	}
	c.Language = lang

	if strings.TrimSpace(c.SpeakerWAV) == "" {
		return fmt.Errorf("%w: speaker_wav", ErrMissingConfig)
	}

	if c.Endpoint == "" {
		c.Endpoint = EndpointTTSToAudio
	}
	endpointValid := false
	for _, e := range Endpoints {
		if strings.EqualFold(c.Endpoint, e) {
			endpointValid = true
			c.Endpoint = e
			break
		}
	}
	if !endpointValid {
		return fmt.Errorf("%w: endpoint %q must be one of %v", ErrInvalidConfig, c.Endpoint, Endpoints)
	}

	return nil
}

// BaseURL returns the server root, e.g. http://127.0.0.1:8020.
func (c Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// URL returns the full URL of the configured endpoint.
func (c Config) URL() string {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = EndpointTTSToAudio
	}
	return c.BaseURL() + "/" + endpoint
}

// NormalizeLanguage canonicalizes a language tag and checks it against
// SupportedLanguages.
func NormalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return DefaultLanguage, nil
	}

	canonical, err := CanonicalLanguage(lang)
	if err != nil {
		return "", err
	}
	for _, l := range SupportedLanguages {
		if l == canonical {
			return canonical, nil
		}
	}
	return "", fmt.Errorf("%w: %q must be one of %v", ErrUnsupportedLanguage, lang, SupportedLanguages)
}

// CanonicalLanguage returns the canonical BCP 47 form of lang, e.g. "EN"
// becomes "en". It does not check lang against SupportedLanguages.
func CanonicalLanguage(lang string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, lang, err)
	}
	return tag.String(), nil
}
