package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/readaloud/reading"
)

var (
	startPage int
	startLine int
	startFrom string

	readCmd = &cobra.Command{
		Use:   "read FILE",
		Short: "Read a document aloud without the terminal interface",
		Long: paragraph(fmt.Sprintf("\n%s a document from the first line, a page and line, or the line best matching some text, until the end or an interrupt.",
			keyword("Read"))),
		Example: paragraph("readaloud read book.pdf --page 12\nreadaloud read notes.md --from \"chapter two\" --engine command"),
		Args:    cobra.ExactArgs(1),
		RunE:    runRead,
	}
)

func init() {
	addStartFlags(readCmd)
}

func addStartFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&startPage, "page", 0, "page to start on (1-based)")
	cmd.Flags().IntVar(&startLine, "line", 1, "line of the page to start on (1-based)")
	cmd.Flags().StringVar(&startFrom, "from", "", "start at the line best matching this text")
	cmd.MarkFlagsMutuallyExclusive("page", "from")
}

func runRead(cmd *cobra.Command, args []string) error {
	logToStderr()

	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	start, err := startFragment(doc, startPage, startLine, startFrom)
	if err != nil {
		return err
	}

	p, err := newPipeline(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer p.Close()

	r, err := reading.NewReader(doc, p.cleaner, p.speaker, nil, readerOptions())
	if err != nil {
		return fmt.Errorf("unable to create reader: %w", err)
	}
	r.OnChunk(func(ev reading.ChunkEvent) {
		log.Debug("Reading chunk", "seq", ev.Seq, "fragment", ev.Fragment.ID(), "lines", ev.Size)
	})
	r.OnError(func(err error) {
		log.Warn("Playback error", "error", err)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Reading", "document", doc.Title, "from", start.ID())
	if err := r.Start(ctx, start); err != nil {
		return fmt.Errorf("unable to start reading: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		// Wait ignores the signal context: after an interrupt the reader
		// still has to finish the chunk in flight.
		return r.Wait(context.Background())
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Info("Interrupted, stopping")
			return r.Stop()
		case <-done:
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck
	}

	snap := r.Snapshot()
	log.Info("Finished", "chunks", snap.ChunksSpoken, "cleaning", snap.Cleaning.Calls, "fallbacks", snap.Cleaning.Fallbacks, "cache", p.cacheStats())
	return nil
}
