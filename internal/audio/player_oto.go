//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/xtts-tts/internal/audio/wav"
)

// OtoPlayer implements Player for cross-platform playback using oto.
// oto allows a single context per process, so the context is created on the
// first call and pinned to that call's sample rate and channel count.
type OtoPlayer struct {
	mu         sync.Mutex
	context    *oto.Context
	sampleRate int
	channels   int

	// Polling interval while waiting for playback to drain
	pollInterval time.Duration
}

// NewPlayer creates a player. No audio device is opened until the first
// PlayWAV call.
func NewPlayer() *OtoPlayer {
	return &OtoPlayer{pollInterval: 10 * time.Millisecond}
}

// PlayWAV decodes buf and plays its PCM payload.
func (p *OtoPlayer) PlayWAV(ctx context.Context, buf []byte) error {
	w, err := wav.Parse(buf)
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if len(w.Data) == 0 {
		return errors.New("audio data is empty")
	}

	otoCtx, err := p.ensureContext(w.SampleRate, w.Channels)
	if err != nil {
		return err
	}

	// Keep the PCM slice referenced for the lifetime of the player.
	data := make([]byte, len(w.Data))
	copy(data, w.Data)

	player := otoCtx.NewPlayer(bytes.NewReader(data))
	defer func() { _ = player.Close() }()

	player.Play()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return player.Err()
}

func (p *OtoPlayer) ensureContext(sampleRate, channels int) (*oto.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.context != nil {
		if p.sampleRate != sampleRate || p.channels != channels {
			return nil, fmt.Errorf("%w: device opened at %d Hz/%d ch, got %d Hz/%d ch",
				wav.ErrUnsupported, p.sampleRate, p.channels, sampleRate, channels)
		}
		return p.context, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	p.context = ctx
	p.sampleRate = sampleRate
	p.channels = channels
	return ctx, nil
}

// Close suspends the audio device.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.context == nil {
		return nil
	}
	return p.context.Suspend()
}

var _ Player = (*OtoPlayer)(nil)
