package tts

import (
	"context"
)

// Provider defines the contract a speech backend exposes to the host platform.
type Provider interface {
	// Name returns the human-readable provider name.
	Name() string

	// DefaultLanguage returns the language used when a request names none.
	DefaultLanguage() string

	// SupportedLanguages returns every language the provider accepts.
	SupportedLanguages() []string

	// GetTTSAudio synthesizes message and returns the audio format and bytes.
	// On failure both return values are empty; errors never reach the caller.
	GetTTSAudio(ctx context.Context, message, language string, options Options) (string, []byte)
}

// Options carries per-request provider options. Providers may ignore them.
type Options map[string]any

// SpeechRequest is the payload sent to a speech server for a single call.
type SpeechRequest struct {
	Text       string `json:"text"`
	SpeakerWAV string `json:"speaker_wav"`
	Language   string `json:"language"`
}

// SpeechResult pairs an audio format with its bytes.
type SpeechResult struct {
	Format string
	Audio  []byte
}

// OK reports whether the result carries audio.
func (r SpeechResult) OK() bool {
	return r.Format != "" && r.Audio != nil
}

// ResultOf wraps the two return values of Provider.GetTTSAudio.
func ResultOf(format string, audio []byte) SpeechResult {
	if format == "" || audio == nil {
		return SpeechResult{}
	}
	return SpeechResult{Format: format, Audio: audio}
}

// IsSupportedLanguage reports whether p accepts language.
func IsSupportedLanguage(p Provider, language string) bool {
	for _, l := range p.SupportedLanguages() {
		if l == language {
			return true
		}
	}
	return false
}
