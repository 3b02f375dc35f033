package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// runRelay owns the serial port and serves subscribers until ctx is
// canceled.
func runRelay(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	server := NewRelayServer(logger, HubConfig{SendBuf: cfg.Relay.SendBuf})

	mux := http.NewServeMux()
	server.Register(mux, cfg.Relay.Path)
	mux.HandleFunc("/healthz", healthHandler(server))

	src := &serialSource{cfg: cfg.ToSerialConfig()}
	delay := time.Duration(cfg.Relay.ReopenDelayMS) * time.Millisecond

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server.Hub().Run(gctx)
		return nil
	})
	g.Go(func() error {
		return runHTTPServer(gctx, cfg.Relay.Listen, mux, nil, logger)
	})
	g.Go(func() error {
		pumpLines(gctx, src, server.Publish, delay, logger)
		return nil
	})

	return g.Wait()
}

// pumpLines opens src, hands every token to publish, and reopens after delay
// whenever the link fails or closes. It returns when ctx is canceled.
func pumpLines(ctx context.Context, src SampleSource, publish func(string), delay time.Duration, logger *slog.Logger) {
	for {
		if err := pumpOnce(ctx, src, publish, logger); err != nil && ctx.Err() == nil {
			logger.Warn("serial link down, retrying", "source", src.Describe(), "error", err, "delay", delay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func pumpOnce(ctx context.Context, src SampleSource, publish func(string), logger *slog.Logger) error {
	stream, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	logger.Info("serial link open", "source", src.Describe())

	for {
		line, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("device closed the link")
			}
			return err
		}
		publish(line)
	}
}
