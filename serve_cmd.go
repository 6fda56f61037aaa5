package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/readaloud/clean"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve-cleaner",
	Short: "Serve the text cleaner over HTTP",
	Long: paragraph(fmt.Sprintf("\nRun the built-in text %s as an HTTP service. Other readers point clean.endpoint at it.",
		keyword("normalizer"))),
	Example: paragraph("readaloud serve-cleaner --addr 127.0.0.1:8089"),
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "address to listen on")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	logToStderr()
	logger := log.Default().WithPrefix("serve")

	srv := &http.Server{
		Addr:              viper.GetString("serve.addr"),
		Handler:           clean.NewServer(clean.NewNormalizer(), viper.GetDuration("clean.timeout"), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx) //nolint:wrapcheck
	})

	return g.Wait() //nolint:wrapcheck
}
