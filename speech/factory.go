package speech

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Engine names accepted by New.
const (
	EngineLog     = "log"
	EngineCommand = "command"
	EnginePiper   = "piper"
)

// Config selects and configures a speech engine.
type Config struct {
	Engine         string
	Command        string
	Args           []string
	Piper          PiperConfig
	Timeout        time.Duration
	WordsPerMinute int
	Out            io.Writer // LogSpeaker output
}

// New creates the speaker named by config.Engine.
func New(config Config) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(config.Engine)) {
	case "", EngineLog:
		return NewLogSpeaker(config.Out, config.WordsPerMinute), nil

	case EngineCommand:
		command := config.Command
		if command == "" {
			command = "espeak-ng"
		}
		return NewCommandSpeaker(command, config.Args, config.Timeout)

	case EnginePiper:
		player, err := NewOtoPlayer()
		if err != nil {
			return nil, err
		}
		piper := config.Piper
		if piper.Timeout == 0 {
			piper.Timeout = config.Timeout
		}
		return NewPiperSpeaker(piper, player)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, config.Engine)
}
