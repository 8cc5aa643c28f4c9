package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cubefield/server/internal/asset"
	"github.com/cubefield/server/internal/command"
	"github.com/cubefield/server/internal/config"
	"github.com/cubefield/server/internal/core/event"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/data"
	"github.com/cubefield/server/internal/display"
	"github.com/cubefield/server/internal/job"
	"github.com/cubefield/server/internal/persist"
	"github.com/cubefield/server/internal/scene"
	"github.com/cubefield/server/internal/scripting"
	"github.com/cubefield/server/internal/state"
	"github.com/cubefield/server/internal/system"
	"github.com/cubefield/server/internal/world"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, session uuid.UUID) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             cubefield  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       deferred task scheduler demo        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(session %s)\033[0m\n\n", serverName, session)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("CUBEFIELD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	session := uuid.New()
	printBanner(cfg.Server.Name, session)

	// 3. Scene data and placement
	printSection("scene")
	def, err := data.LoadScene(cfg.Scene.Path)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	printStat("grid cells", def.Cells())
	printStat("meshes", len(def.Meshes))
	printStat("materials", len(def.Materials))

	var placer job.Placer = job.GridPlacer{Spacing: def.Grid.Spacing}
	if cfg.Scripting.Placement != "" {
		engine, err := scripting.NewEngine(cfg.Scripting.Placement, log)
		if err != nil {
			return fmt.Errorf("load placement script: %w", err)
		}
		defer engine.Close()
		placer = engine
		printOK("placement script " + cfg.Scripting.Placement)
	}

	initial, err := state.Parse(cfg.Scene.InitialState)
	if err != nil {
		return fmt.Errorf("scene.initial_state: %w", err)
	}

	// 4. Optional completion journal
	var journal *system.JournalSystem
	bus := event.NewBus()
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		err = persist.RunMigrations(ctx, db.Pool, log)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		journal = system.NewJournalSystem(bus, persist.NewJournalRepo(db, session), log, cfg.Database.FlushInterval)
		printOK("spawn journal enabled")
	}

	// 5. Scheduler state
	seed := cfg.Scheduler.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	pool := job.NewPool(job.WithWorkers(cfg.Scheduler.Workers), job.WithLogger(log))
	deps := &scene.Deps{
		World:  world.NewState(),
		Assets: asset.NewServer(),
		Pool:   pool,
		Tasks:  job.NewTable(),
		Rand:   rand.New(rand.NewPCG(seed, seed>>1|1)),
		Placer: placer,
		Scene:  def,
		Delay:  job.DelayRange{Min: cfg.Scheduler.MinDelay, Max: cfg.Scheduler.MaxDelay},
		Log:    log,
	}
	machine := state.NewMachine[*scene.Deps](initial, log)
	scene.Register(machine)
	queue := command.NewQueue()

	// 6. Create systems and register with runner
	runner := coresys.NewRunner()
	runner.Register(system.NewStateTransitionSystem(machine, deps, bus))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewSplashSystem(machine, cfg.Scene.SplashDuration))
	runner.Register(system.NewTaskPollSystem(deps.Tasks, queue, log))
	runner.Register(system.NewCommandApplySystem(queue, deps.World, bus,
		func() string { return machine.Current().String() }, log))
	if journal != nil {
		runner.Register(journal)
	}
	runner.Register(system.NewCleanupSystem(deps.World, bus))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Display.Enabled {
		hub := display.NewHub(session.String(), log)
		runner.Register(system.NewDisplaySystem(bus, hub, log))
		srv := display.NewServer(cfg.Display.BindAddress, hub, cfg.Display.WriteTimeout, log)
		g.Go(func() error { return srv.Serve(ctx) })
	}

	printSection("ready")
	printReady(fmt.Sprintf("initial state %s", initial))
	printReady(fmt.Sprintf("tick loop started (tick: %s, workers: %d)", cfg.Scheduler.TickRate, pool.Workers()))
	fmt.Println()

	// 7. Tick loop. The only goroutine that touches world state.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Scheduler.TickRate)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runner.Tick(cfg.Scheduler.TickRate)
			case <-ctx.Done():
				return nil
			}
		}
	})

	err = g.Wait()
	log.Info("shutting down",
		zap.Uint64("ticks", runner.Ticks()),
		zap.Int("in_flight", deps.Tasks.Len()),
		zap.Int("live_entities", deps.World.Live()),
	)

	if journal != nil {
		journal.Flush()
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if perr := pool.Stop(stopCtx); perr != nil {
		err = errors.Join(err, perr)
	}
	stats := pool.Stats()
	log.Info("server stopped",
		zap.Int64("jobs_submitted", stats.Submitted),
		zap.Int64("jobs_completed", stats.Completed),
		zap.Int64("jobs_failed", stats.Failed),
	)
	return err
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
