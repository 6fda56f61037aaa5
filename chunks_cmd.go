package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/segment"
)

var (
	chunkCount int

	chunkHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EE6FF8"))
	chunkNoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})

	chunksCmd = &cobra.Command{
		Use:   "chunks FILE",
		Short: "Print how a document is split into paragraphs",
		Long: paragraph(fmt.Sprintf("\nPrint the %s the reader would speak from a starting line, with the rule that ended each one.",
			keyword("paragraphs"))),
		Example: paragraph("readaloud chunks book.pdf --page 3 --count 5"),
		Args:    cobra.ExactArgs(1),
		RunE:    runChunks,
	}
)

func init() {
	addStartFlags(chunksCmd)
	chunksCmd.Flags().IntVarP(&chunkCount, "count", "n", 10, "number of paragraphs to print")
}

func runChunks(cmd *cobra.Command, args []string) error {
	logToStderr()

	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	start, err := startFragment(doc, startPage, startLine, startFrom)
	if err != nil {
		return err
	}

	seg := segment.New(doc, segmentConfig())
	return printChunks(cmd.OutOrStdout(), doc, seg, seg.Segment(start, chunkCount), int(width)) //nolint:gosec
}

func printChunks(w io.Writer, doc *document.Document, seg *segment.Segmenter, chunks []*segment.Chunk, width int) error {
	wrap := max(width-4, 20)

	for _, c := range chunks {
		first, last := c.First(), c.Last()
		next := doc.NextNonEmpty(last)

		reason := "end of document"
		if next != nil {
			reason = seg.IsBoundary(last, next).String()
		}

		header := chunkHeaderStyle.Render(fmt.Sprintf("#%d %s..%s", c.Seq, first.ID(), last.ID()))
		note := chunkNoteStyle.Render(fmt.Sprintf("%d lines, ends by %s", c.Len(), reason))
		if word := doc.NextWord(last); word != "" {
			note += chunkNoteStyle.Render(fmt.Sprintf(", next word %q", word))
		}

		body := indent.String(wordwrap.String(c.Raw(), wrap), 4)
		if _, err := fmt.Fprintf(w, "%s %s\n%s\n\n", header, note, strings.TrimRight(body, " ")); err != nil {
			return fmt.Errorf("unable to write chunks: %w", err)
		}
	}
	return nil
}
