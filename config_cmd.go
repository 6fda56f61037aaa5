package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# word-wrap at width (0 uses the terminal width)
width: 0
# mouse support
mouse: false

log:
  # debug, info, warn or error
  level: "info"

reader:
  # entries kept ahead of playback; refills start below half of it
  buffer_size: 10
  # how long each further line of a paragraph stays highlighted
  pace: "150ms"

segment:
  # vertical gap, in line heights, that ends a paragraph
  gap_ratio: 1.5
  # indentation increase, in points, that starts a new paragraph
  indent: 20

document:
  # lines per synthetic page for Markdown and text files
  page_lines: 48

clean:
  # URL of a cleaning service; empty uses the built-in normalizer
  endpoint: ""
  timeout: "10s"
  # batch: every paragraph of a batch is read with the whole cleaned text
  # split: each paragraph gets its own part of the cleaned text
  mode: "batch"
  rate_per_minute: 60
  retries: 2
  cache:
    enabled: true
    # dir: "~/.cache/readaloud"
    memory_mb: 16
    disk_mb: 128

speech:
  # log, command or piper
  engine: "log"
  words_per_minute: 180
  timeout: "60s"
  # command engine: {text} in args is replaced by the text, otherwise the
  # text is written to stdin
  command: "espeak-ng"
  args: []
  piper:
    binary: "piper"
    # model: "~/voices/en_US-lessac-medium.onnx"
    speed: 1.0

ui:
  # ANSI or hex color of the highlighted lines
  highlight_color: "226"

serve:
  addr: "127.0.0.1:8089"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the readaloud config file",
	Long:    paragraph(fmt.Sprintf("\n%s the readaloud config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("readaloud config\nreadaloud config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("readaloud", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
