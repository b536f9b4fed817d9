//go:build nocgo
// +build nocgo

package audio

import "context"

// OtoPlayer is a stub for builds without CGO.
type OtoPlayer struct{}

// NewPlayer returns a player whose every call fails.
func NewPlayer() *OtoPlayer {
	return &OtoPlayer{}
}

func (p *OtoPlayer) PlayWAV(context.Context, []byte) error {
	return ErrPlaybackUnavailable
}

func (p *OtoPlayer) Close() error {
	return nil
}

var _ Player = (*OtoPlayer)(nil)
