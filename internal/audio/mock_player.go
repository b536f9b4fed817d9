package audio

import (
	"context"
	"errors"
	"sync"

	"github.com/dgnsrekt/xtts-tts/internal/audio/wav"
)

// MockPlayer implements Player for testing purposes.
// It records what it was asked to play without producing sound.
type MockPlayer struct {
	mu     sync.Mutex
	played [][]byte
	closed bool

	// Err is returned from PlayWAV when set.
	Err error
}

// NewMockPlayer creates a new mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// PlayWAV validates the header like the real player and records the buffer.
func (m *MockPlayer) PlayWAV(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("player is closed")
	}
	if m.Err != nil {
		return m.Err
	}

	w, err := wav.Parse(buf)
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}

	m.played = append(m.played, append([]byte(nil), buf...))
	return nil
}

// Played returns every buffer passed to PlayWAV.
func (m *MockPlayer) Played() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.played
}

// Close marks the player closed.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Player = (*MockPlayer)(nil)
