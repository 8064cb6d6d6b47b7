package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"github.com/etnz/coinfolio/server"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the HTTP API and the live valuation websocket" }
func (*serveCmd) Usage() string {
	return `cfl serve [-addr <host:port>]

  Serves the portfolio over HTTP until interrupted.
  Connected websocket clients receive the valuation periodically and every recorded snapshot.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address, overrides server.addr of the configuration.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error opening portfolio:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if c.addr != "" {
		addr = c.addr
	}
	opts := server.Options{AllowedOrigin: a.cfg.Server.AllowedOrigin}
	if a.rdb != nil {
		opts.Relay = server.NewRelay(a.rdb, a.cfg.Cache.Prefix)
	}
	s := server.NewServer(a.tracker, server.NewHub(), opts)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go s.StartPolling(ctx, a.cfg.PollEvery())

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown error")
		}
	}()

	log.Info().Str("addr", addr).Str("driver", a.db.Driver()).Msg("coinfolio listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, "Error serving:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
