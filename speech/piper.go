package speech

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Audio format produced by piper with --output-raw.
const (
	// SampleRate is the audio sample rate in Hz
	SampleRate = 22050
	// Channels is the number of audio channels (1 = mono)
	Channels = 1
	// BytesPerSample is the number of bytes per 16-bit sample
	BytesPerSample = 2
)

// Speed bounds for piper synthesis.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// Player plays raw 16-bit little-endian mono PCM and returns once playback
// has finished.
type Player interface {
	Play(ctx context.Context, pcm []byte) error
}

// PiperConfig configures a PiperSpeaker.
type PiperConfig struct {
	Binary  string
	Model   string
	Speed   float64
	Timeout time.Duration
}

// PiperSpeaker synthesizes speech with the piper binary and plays it.
type PiperSpeaker struct {
	config  PiperConfig
	player  Player
	manager *SubprocessManager
	logger  *log.Logger
}

// NewPiperSpeaker creates a piper speaker playing through player.
func NewPiperSpeaker(config PiperConfig, player Player) (*PiperSpeaker, error) {
	if config.Binary == "" {
		config.Binary = "piper"
	}
	if config.Model == "" {
		return nil, fmt.Errorf("piper model is required")
	}
	if player == nil {
		return nil, ErrNoAudio
	}
	if err := CheckBinary(config.Binary); err != nil {
		return nil, err
	}
	config.Speed = ClampSpeed(config.Speed)

	return &PiperSpeaker{
		config:  config,
		player:  player,
		manager: NewSubprocessManager(config.Timeout),
		logger:  log.Default().WithPrefix("piper"),
	}, nil
}

// Speak synthesizes text and blocks until it has been played.
func (s *PiperSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	start := time.Now()
	pcm, err := s.manager.ExecuteWithStdin(ctx, text, s.config.Binary, s.args()...)
	if err != nil {
		return fmt.Errorf("piper synthesis failed: %w", err)
	}
	if len(pcm) == 0 {
		return fmt.Errorf("piper produced no audio")
	}

	s.logger.Debug("Synthesis completed",
		"textLength", len(text),
		"audioBytes", len(pcm),
		"audio", PCMDuration(len(pcm)),
		"duration", time.Since(start))

	return s.player.Play(ctx, pcm)
}

func (s *PiperSpeaker) args() []string {
	args := []string{"--model", s.config.Model, "--output-raw"}
	if s.config.Speed != 1.0 {
		// length-scale is inverse to speed
		args = append(args, "--length-scale", strconv.FormatFloat(1.0/s.config.Speed, 'f', 2, 64))
	}
	return args
}

// ClampSpeed limits speed to the supported range. Zero means normal speed.
func ClampSpeed(speed float64) float64 {
	switch {
	case speed == 0:
		return 1.0
	case speed < MinSpeed:
		return MinSpeed
	case speed > MaxSpeed:
		return MaxSpeed
	}
	return speed
}

// PCMDuration returns the playback duration of n bytes of PCM audio.
func PCMDuration(n int) time.Duration {
	samples := n / (BytesPerSample * Channels)
	return time.Duration(samples) * time.Second / SampleRate
}
