package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/readaloud/clean"
	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/internal/cache"
	"github.com/dgnsrekt/readaloud/reading"
	"github.com/dgnsrekt/readaloud/segment"
	"github.com/dgnsrekt/readaloud/speech"
	"github.com/dgnsrekt/readaloud/utils"
)

const megabyte = 1024 * 1024

// pipeline holds the cleaner and speaker shared by every reader a command
// creates.
type pipeline struct {
	cleaner clean.Cleaner
	speaker speech.Speaker
	cache   *cache.Manager // nil when caching is off
	closers []func() error
}

// newPipeline builds the configured cleaner and speaker. out receives the
// text of the log speech engine; nil means stdout.
func newPipeline(out io.Writer) (*pipeline, error) {
	p := &pipeline{}

	cleaner, err := p.buildCleaner()
	if err != nil {
		p.Close()
		return nil, err
	}
	p.cleaner = cleaner

	speaker, err := speech.New(speechConfig(out))
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("unable to create speech engine: %w", err)
	}
	p.speaker = speaker

	return p, nil
}

func (p *pipeline) buildCleaner() (clean.Cleaner, error) {
	var (
		cleaner   clean.Cleaner = clean.NewNormalizer()
		namespace               = "normalizer"
	)

	if endpoint := viper.GetString("clean.endpoint"); endpoint != "" {
		hc, err := clean.NewHTTPCleaner(clean.HTTPConfig{
			Endpoint:          endpoint,
			RequestsPerMinute: viper.GetInt("clean.rate_per_minute"),
			MaxRetries:        viper.GetInt("clean.retries"),
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create cleaner: %w", err)
		}
		p.closers = append(p.closers, func() error { hc.Close(); return nil })
		cleaner = hc
		namespace = endpoint
	}

	if !viper.GetBool("clean.cache.enabled") {
		return cleaner, nil
	}

	cfg, err := cacheConfig()
	if err != nil {
		return nil, err
	}
	m, err := cache.NewManager(cfg)
	if err != nil {
		// Reading works without a cache.
		log.Warn("Cleaning cache disabled", "error", err)
		return cleaner, nil
	}
	p.cache = m
	p.closers = append(p.closers, m.Close)

	return clean.NewCached(cleaner, m, namespace), nil
}

func (p *pipeline) cacheStats() string {
	if p.cache == nil {
		return "off"
	}
	return p.cache.Stats().String()
}

// Close releases the cache and cleaner.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			log.Error("Error closing pipeline", "error", err)
		}
	}
	p.closers = nil
}

func cacheConfig() (cache.Config, error) {
	cfg := cache.DefaultConfig()
	cfg.MemoryCapacity = viper.GetInt64("clean.cache.memory_mb") * megabyte
	cfg.DiskCapacity = viper.GetInt64("clean.cache.disk_mb") * megabyte

	dir := viper.GetString("clean.cache.dir")
	if dir == "" {
		cacheDir, err := gap.NewScope(gap.User, "readaloud").CacheDir()
		if err != nil {
			return cfg, fmt.Errorf("unable to find cache directory: %w", err)
		}
		dir = filepath.Join(cacheDir, "clean")
	}
	cfg.Dir = utils.ExpandPath(dir)
	return cfg, nil
}

func speechConfig(out io.Writer) speech.Config {
	return speech.Config{
		Engine:         viper.GetString("speech.engine"),
		Command:        viper.GetString("speech.command"),
		Args:           viper.GetStringSlice("speech.args"),
		Timeout:        viper.GetDuration("speech.timeout"),
		WordsPerMinute: viper.GetInt("speech.words_per_minute"),
		Out:            out,
		Piper: speech.PiperConfig{
			Binary: viper.GetString("speech.piper.binary"),
			Model:  utils.ExpandPath(viper.GetString("speech.piper.model")),
			Speed:  viper.GetFloat64("speech.piper.speed"),
		},
	}
}

func segmentConfig() segment.Config {
	return segment.Config{
		GapRatio:        viper.GetFloat64("segment.gap_ratio"),
		IndentThreshold: viper.GetFloat64("segment.indent"),
	}
}

func readerOptions() reading.Options {
	return reading.Options{
		BufferSize: viper.GetInt("reader.buffer_size"),
		Pace:       viper.GetDuration("reader.pace"),
		Segment:    segmentConfig(),
		Processor: reading.ProcessorConfig{
			CleanTimeout: viper.GetDuration("clean.timeout"),
			Mode:         reading.ParseCleanMode(viper.GetString("clean.mode")),
		},
	}
}

func openDocument(path string) (*document.Document, error) {
	doc, err := document.Open(utils.ExpandPath(path), document.WithLinesPerPage(viper.GetInt("document.page_lines")))
	if err != nil {
		return nil, fmt.Errorf("unable to open document: %w", err)
	}
	return doc, nil
}

// startFragment resolves where reading begins: the best match for from,
// else the 1-based page and line, else the first line with text.
func startFragment(doc *document.Document, page, line int, from string) (*document.Fragment, error) {
	if from != "" {
		f, err := doc.FindFirst(from)
		if err != nil {
			return nil, fmt.Errorf("unable to find start: %w", err)
		}
		return f, nil
	}

	if page <= 0 {
		f := doc.First()
		if f == nil {
			return nil, document.ErrEmptyDocument
		}
		return f, nil
	}

	f, err := doc.Locate(page-1, max(line, 1)-1)
	if err != nil {
		return nil, fmt.Errorf("unable to find start: %w", err)
	}
	if f.IsEmpty() {
		if f = doc.NextNonEmpty(f); f == nil {
			return nil, errors.New("no text after the given position")
		}
	}
	return f, nil
}
