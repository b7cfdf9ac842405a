package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/tailored-agentic-units/statecore/action"
	"github.com/tailored-agentic-units/statecore/checkpoint"
	"github.com/tailored-agentic-units/statecore/metrics"
	"github.com/tailored-agentic-units/statecore/observability"
	"github.com/tailored-agentic-units/statecore/store"
)

const shutdownTimeout = 5 * time.Second

type runOptions struct {
	resume      bool
	batch       bool
	watch       bool
	showMetrics bool
	storeName   string
	checkpoint  string
	path        string
}

func runCmd(flags *globalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [commands...]",
		Short: "Dispatch commands to the demo store",
		Long: `Dispatch commands to the demo store in order and print the final state.

Commands:
  inc:N      increment the counter by N
  dec:N      decrement the counter by N
  reset      reset the counter
  search:Q   start a search for words starting with Q; a later search
             supersedes any search still running

Commands are dispatched before the store is initialized and replayed on
top of the initial (or resumed) state.

Examples:
  statecore run inc:5 dec:2
  statecore run --batch inc:1 inc:2 search:go search:gor
  statecore run --resume --checkpoint file --path ./.statecore inc:1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			applyRunFlags(cfg, &opts)
			return runApp(cmd.Context(), cmd.OutOrStdout(), cfg, &opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.resume, "resume", "r", false, "Start from the latest checkpoint for the store name")
	cmd.Flags().BoolVarP(&opts.batch, "batch", "b", false, "Apply all commands as one batch (one notification)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Print the state after every notification")
	cmd.Flags().BoolVarP(&opts.showMetrics, "metrics", "m", false, "Print store metrics in Prometheus text format")
	cmd.Flags().StringVar(&opts.storeName, "name", "", "Store name (overrides config)")
	cmd.Flags().StringVar(&opts.checkpoint, "checkpoint", "", "Checkpoint backend: memory, file or sqlite (overrides config)")
	cmd.Flags().StringVar(&opts.path, "path", "", "Checkpoint path (overrides config)")

	return cmd
}

func applyRunFlags(cfg *Config, opts *runOptions) {
	cfg.Merge(&Config{
		Store:      store.Config{Name: opts.storeName},
		Checkpoint: checkpoint.Config{Store: opts.checkpoint, Path: opts.path},
	})
}

func runApp(ctx context.Context, out io.Writer, cfg *Config, opts *runOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ctx, span := otel.Tracer("statecore").Start(ctx, "statecore.run")
	defer span.End()

	events, err := observability.GetObserver(cfg.Store.Observer)
	if err != nil {
		return err
	}
	events = observability.NewMultiObserver(events, observability.NewOTelObserver())

	s, err := store.New(&cfg.Store, AppState{}, appSlices(),
		store.WithContext(ctx),
		store.WithEventObserver(events),
	)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	cp, closer, err := checkpoint.New(&cfg.Checkpoint)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	defer closer.Close()

	if opts.watch {
		s.Subscribe(store.ObserverFunc[AppState](func(state AppState) {
			writeState(out, state)
		}))
	}

	search := newSearch(cfg.Search.Latency())
	dispatchAll := func() error {
		for _, arg := range args {
			d, err := parseCommand(arg, search)
			if err != nil {
				return err
			}
			s.Dispatch(d)
		}
		return nil
	}

	if opts.batch {
		s.BeginBatchUpdate()
	}
	if err := dispatchAll(); err != nil {
		return err
	}

	initial, err := initialState(ctx, cp, cfg.Store.Name, opts.resume, events)
	if err != nil {
		return err
	}

	rec := checkpoint.Record(s, cp, &cfg.Checkpoint,
		checkpoint.WithContext(ctx),
		checkpoint.WithObserver(events),
	)
	if err := s.Init(initial); err != nil {
		return err
	}

	if err := s.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for producers: %w", err)
	}
	if opts.batch {
		s.EndBatchUpdate()
	}

	if err := rec.Close(context.Background()); err != nil {
		return fmt.Errorf("failed to close checkpoint recorder: %w", err)
	}
	if err := s.Shutdown(shutdownTimeout); err != nil {
		return err
	}

	if !opts.watch {
		writeState(out, s.GetState())
	}

	if opts.showMetrics {
		return writeMetrics(out, s)
	}
	return nil
}

func initialState(ctx context.Context, cp checkpoint.Store, name string, resume bool, events observability.Observer) (AppState, error) {
	if !resume {
		return AppState{}, nil
	}

	state, snap, err := checkpoint.RestoreLatest[AppState](ctx, cp, name)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return AppState{}, nil
	}
	if err != nil {
		return AppState{}, fmt.Errorf("failed to restore checkpoint: %w", err)
	}

	events.OnEvent(ctx, observability.NewEvent(checkpoint.EventLoad, observability.LevelInfo, "checkpoint."+name, map[string]any{
		"id":      snap.ID,
		"version": snap.Version,
	}))
	return state, nil
}

func parseCommand(arg string, search func(string) action.Producer) (action.Dispatchable, error) {
	name, value, _ := strings.Cut(arg, ":")

	switch name {
	case "inc", "dec":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid command %q: %w", arg, err)
		}
		if name == "inc" {
			return Increment.New(n), nil
		}
		return Decrement.New(n), nil
	case "reset":
		return Reset.New(struct{}{}), nil
	case "search":
		return search(value), nil
	default:
		// Dispatched verbatim so unknown types surface as unhandled events.
		return action.New(arg, value), nil
	}
}

func writeState(out io.Writer, state AppState) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "failed to encode state: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(data))
}

func writeMetrics(out io.Writer, s *store.Store[AppState]) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector("statecore", s)); err != nil {
		return err
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
