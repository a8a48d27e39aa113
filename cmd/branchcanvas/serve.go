package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/events"
	"github.com/go-go-golems/branchcanvas/pkg/host"
	"github.com/go-go-golems/branchcanvas/pkg/metrics"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one canvas over HTTP, with snapshots, pointer input and metrics",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	cfg, err := loadCanvasConfig()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	m := metrics.New()
	registry, err := m.NewRegistry()
	if err != nil {
		return err
	}

	router, err := events.NewEventRouter(events.WithLogger(events.NewWatermill(log.Logger)))
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	pm := events.NewPublisherManager()
	pm.SubscribePublisher(events.TopicCanvas, router.Publisher)
	e, err := canvas.New(cfg,
		canvas.WithHooks(m.Hooks()),
		canvas.WithHooks(events.CanvasHooks(pm, false)))
	if err != nil {
		return err
	}
	loop := host.NewLoop(e)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := responder.NewDispatcher(ctx, newResponder(catalog),
		responder.NewReplySink(router.Publisher, events.TopicReplies))
	session := host.NewSession(loop, dispatcher, host.WithMetrics(m))

	router.AddHandler("replies", events.TopicReplies, responder.HandleReplies(session.HandleReply))
	router.AddHandler("canvas-log", events.TopicCanvas, events.DispatchCanvasEvents(logCanvasEvent))

	srv := &http.Server{
		Addr: addr,
		Handler: host.NewServer(session,
			host.WithCatalog(catalog),
			host.WithGatherer(registry)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return loop.Run(gctx)
	})
	eg.Go(func() error {
		return router.Run(gctx)
	})
	eg.Go(func() error {
		<-router.Running()
		log.Info().Str("addr", addr).Msg("Starting canvas server")
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down canvas server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(); err != nil {
			log.Warn().Err(err).Msg("dispatcher did not shut down cleanly")
		}
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func logCanvasEvent(e *events.Envelope) error {
	switch e.Type {
	case events.EventTypeMutation:
		ev := e.Mutation
		log.Debug().
			Str("mutation", ev.Name).
			Int64("version", ev.Version).
			Bool("changed", ev.Changed).
			Str("error", ev.Error).
			Dur("duration", ev.Duration).
			Msg("canvas mutation")
	case events.EventTypeNode:
		ev := e.Node
		log.Debug().
			Str("type", string(ev.Type)).
			Str("node_id", ev.NodeID.String()).
			Str("mutation", ev.Mutation).
			Int("node_count", ev.NodeCount).
			Msg("canvas node event")
	}
	return nil
}
