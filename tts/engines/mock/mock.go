// Package mock provides a mock speech provider for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/xtts-tts/internal/audio/wav"
	"github.com/dgnsrekt/xtts-tts/tts"
)

const sampleRate = 24000

// MockProvider implements tts.Provider for testing.
type MockProvider struct {
	mu sync.Mutex

	// Configuration
	defaultLanguage string
	delay           time.Duration // Simulated processing delay

	// Control for testing
	shouldFail bool

	// State
	callCount    int
	lastMessage  string
	lastLanguage string
	lastOptions  tts.Options
}

// New creates a new mock provider.
func New() *MockProvider {
	return &MockProvider{defaultLanguage: tts.DefaultLanguage}
}

// Name returns the provider name.
func (p *MockProvider) Name() string { return "Mock" }

// DefaultLanguage returns the configured default language.
func (p *MockProvider) DefaultLanguage() string { return p.defaultLanguage }

// SupportedLanguages returns tts.SupportedLanguages.
func (p *MockProvider) SupportedLanguages() []string { return tts.SupportedLanguages }

// GetTTSAudio returns a WAV of silence sized to the message.
func (p *MockProvider) GetTTSAudio(ctx context.Context, message, language string, options tts.Options) (string, []byte) {
	p.mu.Lock()
	p.callCount++
	p.lastMessage = message
	p.lastLanguage = language
	p.lastOptions = options
	fail := p.shouldFail
	delay := p.delay
	p.mu.Unlock()

	if fail {
		return "", nil
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", nil
		}
	}

	samples := int(estimateDuration(message).Seconds() * sampleRate)
	return tts.FormatWAV, wav.Encode(make([]byte, samples*2), sampleRate, 1)
}

// Test control methods

// SetDelay sets the simulated processing delay.
func (p *MockProvider) SetDelay(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = delay
}

// SetFailure makes every call return the empty result.
func (p *MockProvider) SetFailure(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shouldFail = fail
}

// GetCallCount returns the number of GetTTSAudio calls.
func (p *MockProvider) GetCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

// LastCall returns the arguments of the most recent call.
func (p *MockProvider) LastCall() (message, language string, options tts.Options) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastMessage, p.lastLanguage, p.lastOptions
}

// estimateDuration estimates speaking duration for text.
func estimateDuration(text string) time.Duration {
	// Estimate ~150 words per minute
	words := len(text) / 5 // Rough estimate: 5 chars per word
	if words < 1 {
		words = 1
	}
	seconds := float64(words) * 60.0 / 150.0
	return time.Duration(seconds * float64(time.Second))
}

var _ tts.Provider = (*MockProvider)(nil)
