package audio

import (
	"context"
	"errors"
)

// ErrPlaybackUnavailable is returned by builds without an audio backend.
var ErrPlaybackUnavailable = errors.New("audio not available in nocgo build")

// Player plays a complete WAV buffer and blocks until it has finished.
type Player interface {
	PlayWAV(ctx context.Context, buf []byte) error
	Close() error
}
