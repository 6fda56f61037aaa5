// Package main provides the entry point for the readaloud CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/reading"
	"github.com/dgnsrekt/readaloud/ui"
	"github.com/dgnsrekt/readaloud/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	width      uint
	mouse      bool
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "readaloud [FILE]",
		Short: "Read documents aloud in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead PDF, Markdown and text documents aloud, %s as they are spoken.", keyword("highlighting lines")),
		),
		Example:          paragraph("readaloud book.pdf\nreadaloud read notes.md --from \"chapter two\""),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"pdf", "md", "markdown", "txt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(utils.ExpandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	debug = viper.GetBool("debug")

	setLogLevel(viper.GetString("log.level"), debug)

	if viper.GetInt("reader.buffer_size") < 2 {
		return fmt.Errorf("reader.buffer_size must be at least 2, got %d", viper.GetInt("reader.buffer_size"))
	}
	if viper.GetFloat64("segment.gap_ratio") <= 0 {
		return fmt.Errorf("segment.gap_ratio must be positive, got %.2f", viper.GetFloat64("segment.gap_ratio"))
	}
	if speed := viper.GetFloat64("speech.piper.speed"); speed < 0.1 || speed > 3.0 {
		return fmt.Errorf("speech.piper.speed must be between 0.1 and 3.0, got %.2f", speed)
	}
	if mode := viper.GetString("clean.mode"); mode != "batch" && mode != "split" {
		return fmt.Errorf("clean.mode must be batch or split, got %q", mode)
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))

	// Detect terminal width
	if !cmd.Flags().Changed("width") {
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func execute(_ *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the reader needs a terminal; use 'readaloud read' to read without one")
	}

	path := utils.ExpandPath(args[0])
	if !document.Supported(path) {
		return fmt.Errorf("%s: %w", filepath.Ext(path), document.ErrUnsupportedFormat)
	}
	return runTUI(path)
}

func runTUI(path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Path = path
	cfg.MaxWidth = width
	cfg.EnableMouse = mouse
	if viper.IsSet("ui.highlight_color") {
		cfg.HighlightColor = viper.GetString("ui.highlight_color")
	}

	doc, err := openDocument(path)
	if err != nil {
		return err
	}

	// The terminal belongs to the reader, so the log engine prints nowhere.
	p, err := newPipeline(io.Discard)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	program, err := ui.NewProgram(cfg, ui.Options{
		Document: doc,
		NewReader: func(doc *document.Document, h reading.Highlighter) (*reading.Reader, error) {
			return reading.NewReader(doc, p.cleaner, p.speaker, h, readerOptions())
		},
		Load:       openDocument,
		CacheStats: p.cacheStats,
		Context:    ctx,
	})
	if err != nil {
		return err
	}

	// Run Bubble Tea program
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().String("engine", "", "speech engine: log, command or piper")
	rootCmd.PersistentFlags().String("cleaner", "", "URL of a text cleaning service (default: local normalizer)")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "wrap lines at width (set to 0 to use the terminal width)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("speech.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("clean.endpoint", rootCmd.PersistentFlags().Lookup("cleaner"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(readCmd, chunksCmd, serveCmd, configCmd, manCmd)
}

// setDefaults registers the default value of every configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("width", 0)
	v.SetDefault("mouse", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("reader.buffer_size", reading.DefaultBufferSize)
	v.SetDefault("reader.pace", reading.DefaultPace)

	v.SetDefault("segment.gap_ratio", 1.5)
	v.SetDefault("segment.indent", 20.0)

	v.SetDefault("document.page_lines", document.DefaultLinesPerPage)

	v.SetDefault("clean.endpoint", "")
	v.SetDefault("clean.timeout", reading.DefaultCleanTimeout)
	v.SetDefault("clean.mode", "batch")
	v.SetDefault("clean.rate_per_minute", 60)
	v.SetDefault("clean.retries", 2)
	v.SetDefault("clean.cache.enabled", true)
	v.SetDefault("clean.cache.dir", "")
	v.SetDefault("clean.cache.memory_mb", 16)
	v.SetDefault("clean.cache.disk_mb", 128)

	v.SetDefault("speech.engine", "log")
	v.SetDefault("speech.command", "espeak-ng")
	v.SetDefault("speech.args", []string{})
	v.SetDefault("speech.words_per_minute", 180)
	v.SetDefault("speech.timeout", "60s")
	v.SetDefault("speech.piper.binary", "piper")
	v.SetDefault("speech.piper.model", "")
	v.SetDefault("speech.piper.speed", 1.0)

	v.SetDefault("serve.addr", "127.0.0.1:8089")
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readaloud")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readaloud")}, dirs...)
	}

	if c := os.Getenv("READALOUD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readaloud")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readaloud")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "readaloud.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
