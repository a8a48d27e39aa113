package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/events"
	"github.com/go-go-golems/branchcanvas/pkg/models"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
	"github.com/go-go-golems/branchcanvas/pkg/scenario"
)

type runSettings struct {
	OutDir      string
	PrintEvents bool
	AllEvents   bool
	RawEvents   bool
	Seed        uint64
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.yaml>...",
		Short: "Replay scenario scripts against a fresh canvas and export snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := runSettings{}
			var err error
			if s.OutDir, err = cmd.Flags().GetString("out"); err != nil {
				return err
			}
			if s.PrintEvents, err = cmd.Flags().GetBool("print-events"); err != nil {
				return err
			}
			if s.AllEvents, err = cmd.Flags().GetBool("all-events"); err != nil {
				return err
			}
			if s.RawEvents, err = cmd.Flags().GetBool("raw-events"); err != nil {
				return err
			}
			if s.Seed, err = cmd.Flags().GetUint64("reply-seed"); err != nil {
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

			for _, path := range args {
				if err := runScript(cmd.Context(), cmd, path, cfg, catalog, s); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("out", ".", "Directory relative export paths are resolved against")
	cmd.Flags().Bool("print-events", false, "Print engine events as JSON while the script runs")
	cmd.Flags().Bool("all-events", false, "Also print events of mutations that changed nothing")
	cmd.Flags().Bool("raw-events", false, "Print events as published instead of flattened")
	cmd.Flags().Uint64("reply-seed", 1, "Seed of the simulated replies, so runs are reproducible")
	return cmd
}

func runScript(ctx context.Context, cmd *cobra.Command, path string, cfg canvas.Config, catalog *models.Catalog, s runSettings) error {
	script, err := scenario.Load(path)
	if err != nil {
		return err
	}

	var options []canvas.Option
	if s.PrintEvents {
		router, err := events.NewEventRouter(events.WithVerbose(s.RawEvents))
		if err != nil {
			return err
		}
		router.AddHandler("dump", events.TopicCanvas, router.DumpRawEvents)

		ctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- router.Run(ctx)
		}()
		defer func() {
			cancel()
			_ = router.Close()
			if err := <-done; err != nil {
				log.Warn().Err(err).Msg("event router stopped with an error")
			}
		}()
		<-router.Running()

		pm := events.NewPublisherManager()
		pm.SubscribePublisher(events.TopicCanvas, router.Publisher)
		options = append(options, canvas.WithHooks(events.CanvasHooks(pm, s.AllEvents)))
	}

	e, err := canvas.New(cfg, options...)
	if err != nil {
		return err
	}
	runner := scenario.NewRunner(e,
		scenario.WithCatalog(catalog),
		scenario.WithOutputDir(s.OutDir),
		scenario.WithResponder(responder.NewSimulated(catalog,
			responder.WithDelay(0),
			responder.WithSeed(s.Seed))),
		scenario.WithLogger(log.Logger),
	)

	res, err := runner.Run(ctx, script)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s: %d steps, %d nodes, version %d, zoom %d%%\n",
		script.Name, res.Steps, len(res.Snapshot.Nodes), res.Snapshot.Version, res.Snapshot.ZoomPercent)
	for _, p := range res.Exports {
		_, _ = fmt.Fprintf(out, "  wrote %s\n", p)
	}
	return nil
}
