package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/events"
	"github.com/go-go-golems/branchcanvas/pkg/host"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
	"github.com/go-go-golems/branchcanvas/pkg/ui"
)

func newTUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the canvas in the terminal",
		Long: "Open the canvas in the terminal. Drag card headers with the mouse, " +
			"pan by dragging the background and zoom with the wheel. Press ? for keys.",
		RunE: runTUI,
	}
	cmd.Flags().String("export", "canvas-{{ .Step }}.svg", "Path template for exports (svg, png or json)")
	return cmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("tui needs a terminal on stdout")
	}
	// the screen belongs to the program, logs only go to --log-file
	err := InitLogger(&logConfig{
		Level:      viper.GetString("log-level"),
		LogFile:    viper.GetString("log-file"),
		WithCaller: viper.GetBool("with-caller"),
		Quiet:      true,
	})
	if err != nil {
		return err
	}

	exportPath, err := cmd.Flags().GetString("export")
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

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	e, err := canvas.New(cfg)
	if err != nil {
		return err
	}
	loop := host.NewLoop(e)

	router, err := events.NewEventRouter(events.WithLogger(events.NewWatermill(log.Logger)))
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	dispatcher := responder.NewDispatcher(ctx, newResponder(catalog),
		responder.NewReplySink(router.Publisher, events.TopicReplies))
	session := host.NewSession(loop, dispatcher)
	forwarder := ui.NewReplyForwarder(session)
	router.AddHandler("replies", events.TopicReplies, responder.HandleReplies(forwarder.HandleReply))

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return loop.Run(gctx)
	})
	eg.Go(func() error {
		return router.Run(gctx)
	})
	<-router.Running()

	options := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(), // presses, drags and the wheel
		tea.WithContext(gctx),
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		tty, err := ui.OpenTTY()
		if err != nil {
			cancel()
			_ = eg.Wait()
			return errors.Wrap(err, "could not open the terminal for input")
		}
		defer tty.Close()
		options = append(options, tea.WithInput(tty))
	}

	p := tea.NewProgram(
		ui.InitialModel(session,
			ui.WithCatalog(catalog),
			ui.WithExportPath(exportPath),
			ui.WithContext(gctx)),
		options...,
	)
	forwarder.Attach(p)

	eg.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	err = eg.Wait()
	if cerr := dispatcher.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("dispatcher did not shut down cleanly")
	}
	return err
}
