package reading

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/clean"
	"github.com/dgnsrekt/readaloud/segment"
)

// DefaultCleanTimeout bounds one cleaning call.
const DefaultCleanTimeout = 10 * time.Second

var errEmptyCleaned = errors.New("cleaner returned empty text")

// CleanMode selects how a cleaned batch is assigned to chunks.
type CleanMode int

const (
	// CleanModeBatch gives every chunk of a batch the whole cleaned text.
	CleanModeBatch CleanMode = iota
	// CleanModeSplit splits the cleaned batch on the paragraph separator
	// and gives each chunk its own part, falling back to the whole batch
	// when the part count does not match.
	CleanModeSplit
)

// String returns the mode name used in configuration.
func (m CleanMode) String() string {
	if m == CleanModeSplit {
		return "split"
	}
	return "batch"
}

// ParseCleanMode parses a configuration value. Unknown values mean batch.
func ParseCleanMode(s string) CleanMode {
	if strings.EqualFold(strings.TrimSpace(s), "split") {
		return CleanModeSplit
	}
	return CleanModeBatch
}

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	CleanTimeout time.Duration
	Mode         CleanMode
}

// Processor cleans segmented chunks and expands them into playback entries.
type Processor struct {
	cleaner clean.Cleaner
	config  ProcessorConfig
	metrics *MetricsRecorder
	logger  *log.Logger
}

// NewProcessor creates a processor. A nil cleaner reads raw text.
func NewProcessor(cleaner clean.Cleaner, config ProcessorConfig) *Processor {
	if config.CleanTimeout <= 0 {
		config.CleanTimeout = DefaultCleanTimeout
	}
	logger := log.Default().WithPrefix("processor")
	return &Processor{
		cleaner: cleaner,
		config:  config,
		metrics: NewMetricsRecorder(logger),
		logger:  logger,
	}
}

// Metrics returns the processor's cleaning metrics.
func (p *Processor) Metrics() MetricsSummary {
	return p.metrics.Summary()
}

// Process cleans chunks with a single cleaner call and returns the non-empty
// chunks with their spoken text set. When cleaning fails or times out each
// chunk falls back to its raw text.
func (p *Processor) Process(ctx context.Context, chunks []*segment.Chunk) []*segment.Chunk {
	valid := make([]*segment.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c == nil || c.Len() == 0 {
			p.logger.Debug("Skipping empty chunk")
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil
	}

	raws := make([]string, len(valid))
	for i, c := range valid {
		raws[i] = c.Raw()
	}

	if p.cleaner == nil {
		for i, c := range valid {
			c.SetCleaned(raws[i])
		}
		return valid
	}

	batch := clean.Join(raws)
	metrics := p.metrics.StartClean(len(valid), batch)

	cctx, cancel := context.WithTimeout(ctx, p.config.CleanTimeout)
	cleaned, err := p.cleaner.Clean(cctx, batch)
	cancel()

	if err == nil && strings.TrimSpace(cleaned) == "" {
		err = errEmptyCleaned
	}
	metrics.EndClean(err)

	if err != nil {
		for i, c := range valid {
			c.SetCleaned(raws[i])
		}
		return valid
	}

	if p.config.Mode == CleanModeSplit {
		if parts := Split(cleaned, len(valid)); parts != nil {
			for i, c := range valid {
				c.SetCleaned(parts[i])
			}
			return valid
		}
		p.logger.Debug("Cleaned batch did not split evenly, sharing it", "chunks", len(valid))
	}

	cleaned = strings.TrimSpace(cleaned)
	for _, c := range valid {
		c.SetCleaned(cleaned)
	}
	return valid
}

// Split divides a cleaned batch into exactly n non-empty parts, or returns
// nil.
func Split(cleaned string, n int) []string {
	parts := clean.Split(strings.TrimSpace(cleaned))
	if len(parts) != n {
		return nil
	}
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
		if parts[i] == "" {
			return nil
		}
	}
	return parts
}

// Expand flattens processed chunks into entries: one chunk start carrying
// the cleaned text and size, followed by a highlight-only entry with no
// text per remaining fragment.
func Expand(chunks []*segment.Chunk) []Entry {
	n := 0
	for _, c := range chunks {
		n += c.Len()
	}

	entries := make([]Entry, 0, n)
	for _, c := range chunks {
		if c.Len() == 0 {
			continue
		}
		text := c.Cleaned
		if !c.HasCleaned() || strings.TrimSpace(text) == "" {
			text = c.Raw()
		}
		for i, f := range c.Fragments {
			if i == 0 {
				entries = append(entries, Entry{
					Fragment:       f,
					Text:           text,
					IsChunkStart:   true,
					ChunkSize:      c.Len(),
					ReadyForSpeech: true,
					ChunkSeq:       c.Seq,
				})
				continue
			}
			entries = append(entries, Entry{
				Fragment:  f,
				ChunkSize: c.Len(),
				ChunkSeq:  c.Seq,
			})
		}
	}
	return entries
}
