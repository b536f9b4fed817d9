package tts

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the provider configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("xtts.host") {
		cfg.Host = viper.GetString("xtts.host")
	}
	if viper.IsSet("xtts.port") {
		cfg.Port = viper.GetInt("xtts.port")
	}
	if viper.IsSet("xtts.language") {
		cfg.Language = viper.GetString("xtts.language")
	}
	if viper.IsSet("xtts.speaker_wav") {
		cfg.SpeakerWAV = viper.GetString("xtts.speaker_wav")
	}
	if viper.IsSet("xtts.endpoint") {
		cfg.Endpoint = viper.GetString("xtts.endpoint")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid XTTS configuration: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromEnv loads the provider configuration from XTTS_* environment
// variables.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid XTTS configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults sets default values in Viper for the provider configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("xtts.port", defaults.Port)
	viper.SetDefault("xtts.language", defaults.Language)
	viper.SetDefault("xtts.endpoint", defaults.Endpoint)
}

// BindEnv binds the xtts.* Viper keys to the XTTS_* variables
// LoadConfigFromEnv reads, so a config file can be overridden from the
// environment.
func BindEnv() {
	_ = viper.BindEnv("xtts.host", "XTTS_HOST")
	_ = viper.BindEnv("xtts.port", "XTTS_PORT")
	_ = viper.BindEnv("xtts.language", "XTTS_LANGUAGE")
	_ = viper.BindEnv("xtts.speaker_wav", "XTTS_SPEAKER_WAV")
	_ = viper.BindEnv("xtts.endpoint", "XTTS_ENDPOINT")
}

// ToMap flattens the configuration into the key set the platform schema uses.
func (c Config) ToMap() map[string]any {
	return map[string]any{
		"host":        c.Host,
		"port":        c.Port,
		"language":    c.Language,
		"speaker_wav": c.SpeakerWAV,
		"endpoint":    c.Endpoint,
	}
}
