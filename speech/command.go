package speech

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// TextPlaceholder in CommandSpeaker arguments is replaced by the text to
// speak. Without it the text is written to the command's stdin.
const TextPlaceholder = "{text}"

// CommandSpeaker speaks by running an external program such as espeak-ng
// or say, waiting for it to exit.
type CommandSpeaker struct {
	command string
	args    []string
	manager *SubprocessManager
	logger  *log.Logger
}

// NewCommandSpeaker creates a speaker running command with args. The
// binary must be on PATH.
func NewCommandSpeaker(command string, args []string, timeout time.Duration) (*CommandSpeaker, error) {
	if err := CheckBinary(command); err != nil {
		return nil, err
	}
	return &CommandSpeaker{
		command: command,
		args:    args,
		manager: NewSubprocessManager(timeout),
		logger:  log.Default().WithPrefix("speech"),
	}, nil
}

// Speak runs the command for text.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	args, stdin := s.commandArgs(text)
	s.logger.Debug("Running speech command", "command", s.command, "chars", len(text))

	_, err := s.manager.ExecuteWithStdin(ctx, stdin, s.command, args...)
	return err
}

func (s *CommandSpeaker) commandArgs(text string) ([]string, string) {
	args := make([]string, len(s.args))
	substituted := false
	for i, a := range s.args {
		if strings.Contains(a, TextPlaceholder) {
			a = strings.ReplaceAll(a, TextPlaceholder, text)
			substituted = true
		}
		args[i] = a
	}
	if substituted {
		return args, ""
	}
	return args, text
}
