package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/me/gotr/internal/config"
	"github.com/me/gotr/internal/discovery"
	"github.com/me/gotr/internal/events"
	"github.com/me/gotr/internal/procexec"
	"github.com/me/gotr/internal/scheduler"
	"github.com/me/gotr/internal/server"
	"github.com/me/gotr/internal/store"
	"github.com/me/gotr/pkg/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd() *cobra.Command {
	var (
		configFile  string
		pattern     string
		interpreter string
		statusAddr  string
		dbPath      string
		tick        time.Duration
		noHistory   bool
	)

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Discover and execute test cases honoring their ordering constraints",
		Long: `run discovers test cases under dir (default "."), validates their declared
dependencies, and drives them to completion: independent tests start
immediately and run concurrently; a test that requires another waits until
that test finished plus its declared delay.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultRunConfig()
			if configFile != "" {
				var err error
				if cfg, err = config.Load(configFile); err != nil {
					return err
				}
			}
			if len(args) > 0 {
				cfg.TestRoot = args[0]
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Pattern = pattern
			}
			if cmd.Flags().Changed("interpreter") {
				cfg.Interpreter = interpreter
			}
			if cmd.Flags().Changed("status-addr") {
				cfg.StatusAddr = statusAddr
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if cmd.Flags().Changed("tick") {
				cfg.TickInterval = tick
			}

			return runScheduler(cmd.Context(), cfg, noHistory)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file (flags override it)")
	cmd.Flags().StringVar(&pattern, "pattern", "*_test.sh", "Test file glob")
	cmd.Flags().StringVar(&interpreter, "interpreter", "/bin/sh", "Command used to run a test file")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "Serve the status API on this address while running")
	cmd.Flags().StringVar(&dbPath, "db", "", "Run-history database path (default ~/.gotr/gotr.db)")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Scheduler polling interval")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the run to the history database")

	return cmd
}

// publisherFunc adapts a function to the events.Publisher interface.
type publisherFunc func(events.Event)

func (f publisherFunc) Publish(ev events.Event) { f(ev) }

// outputTally counts forwarded output bytes per unit for the run history.
type outputTally struct {
	mu     sync.Mutex
	stdout map[string]int64
	stderr map[string]int64
}

func newOutputTally() *outputTally {
	return &outputTally{stdout: make(map[string]int64), stderr: make(map[string]int64)}
}

func (t *outputTally) observe(ev events.Event) {
	if ev.Type != events.TypeUnitOutput {
		return
	}
	t.mu.Lock()
	if ev.Stream == "stderr" {
		t.stderr[ev.UnitID] += int64(len(ev.Output))
	} else {
		t.stdout[ev.UnitID] += int64(len(ev.Output))
	}
	t.mu.Unlock()
}

func (t *outputTally) bytes(unitID string) (stdout, stderr int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stdout[unitID], t.stderr[unitID]
}

func runScheduler(parent context.Context, cfg config.RunConfig, noHistory bool) error {
	startedAt := time.Now().UTC()

	bus := events.NewBus(1024)
	defer bus.Close()
	bus.Subscribe(events.LogSink(logger))
	bus.Subscribe(events.OutputSink(os.Stdout))

	// The tally observes synchronously, in the publish path, so the byte
	// counts are complete by the time the run history is written. Everything
	// else rides the bus.
	tally := newOutputTally()
	pub := publisherFunc(func(ev events.Event) {
		tally.observe(ev)
		bus.Publish(ev)
	})

	disc := discovery.New(discovery.Config{
		Root:        cfg.TestRoot,
		Pattern:     cfg.Pattern,
		Interpreter: cfg.Interpreter,
	}, logger)
	cases, err := disc.Discover()
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Printf("No test cases matching %q under %s.\n", cfg.Pattern, cfg.TestRoot)
		return nil
	}

	loop := scheduler.NewLoop(scheduler.Config{TickInterval: cfg.TickInterval}, pub, logger)
	for _, tc := range cases {
		bus.Publish(events.Event{
			Type:   events.TypeUnitDiscovered,
			UnitID: tc.ID,
			Detail: tc.Path,
		})
		proc := procexec.NewOSProcess(tc.ID, tc.Command[0], tc.Command[1:], filepath.Dir(tc.Path), nil)
		if err := loop.Register(model.NewTestUnit(tc.ID, tc.DependsOn, tc.DelayMinutes), proc); err != nil {
			return fmt.Errorf("register %s: %w", tc.ID, err)
		}
	}

	excluded := loop.Prepare()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	runDone, finishRun := context.WithCancel(gctx)
	defer finishRun()

	if cfg.StatusAddr != "" {
		srv := server.New(loop, bus, logger)
		g.Go(func() error {
			return srv.ListenAndServe(runDone, cfg.StatusAddr)
		})
	}
	g.Go(func() error {
		defer finishRun()
		return loop.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	finishedAt := time.Now().UTC()
	units, counts := loop.Snapshot()

	if !noHistory {
		if err := recordHistory(parent, cfg, startedAt, finishedAt, units, len(excluded), tally); err != nil {
			logger.Error("record run history", "error", err)
		}
	}

	failures := 0
	for _, u := range units {
		if u.LaunchFailed || (u.ExitCode != nil && *u.ExitCode != 0) {
			failures++
		}
	}

	fmt.Printf("\n%d units finished in %s", counts.Finished, finishedAt.Sub(startedAt).Round(time.Millisecond))
	if len(excluded) > 0 {
		fmt.Printf(", %d excluded", len(excluded))
	}
	fmt.Println()
	if failures > 0 {
		return fmt.Errorf("%d of %d units failed", failures, counts.Finished)
	}
	return nil
}

// recordHistory writes the completed run to the sqlite history store.
func recordHistory(ctx context.Context, cfg config.RunConfig, startedAt, finishedAt time.Time,
	units []model.TestUnit, excluded int, tally *outputTally) error {

	dbPath, err := resolveDBPath(cfg.DBPath)
	if err != nil {
		return err
	}
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	run := &model.Run{
		ID:         "run_" + uuid.New().String(),
		TestRoot:   cfg.TestRoot,
		StartedAt:  startedAt,
		FinishedAt: &finishedAt,
		Units:      len(units),
		Excluded:   excluded,
	}
	results := make([]model.UnitResult, 0, len(units))
	for _, u := range units {
		if u.LaunchFailed {
			run.LaunchFailures++
		}
		stdout, stderr := tally.bytes(u.ID)
		results = append(results, model.UnitResult{
			RunID:        run.ID,
			UnitID:       u.ID,
			Status:       u.Status,
			DependsOn:    u.DependsOn,
			Delay:        u.Delay,
			ExitCode:     u.ExitCode,
			LaunchFailed: u.LaunchFailed,
			StartedAt:    u.StartedAt,
			FinishedAt:   u.FinishedAt,
			StdoutBytes:  stdout,
			StderrBytes:  stderr,
		})
	}

	return st.RecordRun(ctx, run, results)
}

// resolveDBPath expands the default history location when none is configured.
func resolveDBPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".gotr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "gotr.db"), nil
}
