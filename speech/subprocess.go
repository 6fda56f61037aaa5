package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// SubprocessManager runs speech binaries one at a time with a default
// timeout. Stdin is attached before the process starts.
type SubprocessManager struct {
	// mutex serializes subprocess execution
	mu sync.Mutex

	defaultTimeout time.Duration
}

// NewSubprocessManager creates a new subprocess manager.
func NewSubprocessManager(timeout time.Duration) *SubprocessManager {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SubprocessManager{
		defaultTimeout: timeout,
	}
}

// ExecuteWithStdin runs a command with input on stdin and returns stdout.
func (sm *SubprocessManager) ExecuteWithStdin(ctx context.Context, input string, name string, args ...string) ([]byte, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sm.defaultTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	err := cmd.Wait()

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("subprocess timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("subprocess cancelled: %w", ctx.Err())
	}

	if err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return nil, fmt.Errorf("subprocess failed: %w\nstderr: %s", err, s)
		}
		return nil, fmt.Errorf("subprocess failed: %w", err)
	}

	return stdout.Bytes(), nil
}

// Execute runs a command without stdin.
func (sm *SubprocessManager) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	return sm.ExecuteWithStdin(ctx, "", name, args...)
}

// CheckBinary checks if a binary exists in the system PATH.
func CheckBinary(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("binary '%s' not found in PATH: %w", name, err)
	}
	return nil
}
