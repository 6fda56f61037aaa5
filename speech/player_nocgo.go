//go:build nocgo

package speech

import "context"

// OtoPlayer is unavailable in builds without cgo.
type OtoPlayer struct{}

// NewOtoPlayer reports that audio output is not available.
func NewOtoPlayer() (*OtoPlayer, error) {
	return nil, ErrNoAudio
}

// Play always fails.
func (p *OtoPlayer) Play(ctx context.Context, pcm []byte) error {
	return ErrNoAudio
}
