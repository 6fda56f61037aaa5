//go:build !nocgo

package speech

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoContext     *oto.Context
	otoContextErr  error
	otoContextOnce sync.Once
)

func audioContext() (*oto.Context, error) {
	otoContextOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		switch runtime.GOOS {
		case "darwin":
			// macOS benefits from larger buffers
			options.BufferSize = 100 * time.Millisecond
		default:
			options.BufferSize = 50 * time.Millisecond
		}

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			otoContextErr = fmt.Errorf("failed to create audio context: %w", err)
			return
		}

		select {
		case <-ready:
			otoContext = ctx
		case <-time.After(5 * time.Second):
			otoContextErr = fmt.Errorf("%w: audio context not ready", ErrNoAudio)
		}
	})
	return otoContext, otoContextErr
}

// OtoPlayer plays PCM through the system audio device.
type OtoPlayer struct {
	mu sync.Mutex
}

// NewOtoPlayer initializes the audio device.
func NewOtoPlayer() (*OtoPlayer, error) {
	if _, err := audioContext(); err != nil {
		return nil, err
	}
	return &OtoPlayer{}, nil
}

// Play plays pcm and waits until it has finished or ctx ends.
func (p *OtoPlayer) Play(ctx context.Context, pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	audio, err := audioContext()
	if err != nil {
		return err
	}

	player := audio.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				return player.Err()
			}
		}
	}
}
