package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/l1jgo/mars/internal/component"
	"github.com/l1jgo/mars/internal/config"
	"github.com/l1jgo/mars/internal/core/ecs"
	"github.com/l1jgo/mars/internal/data"
	"github.com/l1jgo/mars/internal/logging"
	"github.com/l1jgo/mars/internal/scripting"
	"github.com/pkg/profile"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	scenePath  string
	verbosity  uint8
	ticks      uint64
	seed       uint32
	profile    string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value string) {
	dotsLen := 42 - len(label) - len(value)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), value)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func parseFlags(args []string, cfgPath string) (*options, *pflag.FlagSet, error) {
	opts := &options{configPath: cfgPath}
	fs := pflag.NewFlagSet("mars", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", opts.configPath, "config file (TOML)")
	fs.Uint8VarP(&opts.verbosity, "verbosity", "v", uint8(logging.All), "log mask: 1=error 2=warning 4=notice")
	fs.StringVar(&opts.scenePath, "scene", "", "scene file (YAML), overrides [scene] path")
	fs.Uint64Var(&opts.ticks, "ticks", 0, "stop after n ticks, 0 = run until signalled")
	fs.Uint32Var(&opts.seed, "seed", 0, "id generator seed, overrides [engine] seed")
	fs.StringVar(&opts.profile, "profile", "", "write a cpu or mem profile")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs, nil
}

func run(args []string) error {
	cfgPath := "config/mars.toml"
	if p := os.Getenv("MARS_CONFIG"); p != "" {
		cfgPath = p
	}
	opts, fs, err := parseFlags(args, cfgPath)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	// 1. Load config, flags win
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if fs.Changed("verbosity") {
		cfg.Logging.Verbosity = opts.verbosity
	}
	if fs.Changed("scene") {
		cfg.Scene.Path = opts.scenePath
	}
	if fs.Changed("ticks") {
		cfg.Engine.MaxTicks = opts.ticks
	}
	if fs.Changed("seed") {
		cfg.Engine.Seed = opts.seed
	}
	verbosity := logging.Verbosity(cfg.Logging.Verbosity)

	// 2. Init logger
	log, err := logging.New(cfg.Logging, verbosity)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", opts.profile)
	}

	// 3. Scripts and scene
	scripts, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	defer scripts.Close()
	if cfg.Scripting.Watch {
		if err := scripts.Watch(); err != nil {
			log.Warn("script hot reload disabled", zap.Error(err))
		}
	}

	scene, err := data.LoadScene(cfg.Scene.Path)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	dt := cfg.Engine.DT
	if scene.DT > 0 {
		dt = scene.DT
	}

	// 4. Engine
	display := verbosity&logging.Notice != 0
	var (
		sys   data.Systems
		names map[string]ecs.ID
	)
	engine, err := ecs.New(
		ecs.WithDT(dt),
		ecs.WithSeed(cfg.Engine.Seed),
		ecs.WithLogger(log),
		ecs.WithFrameDelay(cfg.Engine.FrameDelay),
		ecs.WithTableCapacity(cfg.Table.InitialCapacity, cfg.Table.LoadFactor),
		ecs.WithOnInit(func(e *ecs.Engine) error {
			var err error
			if sys.Transforms, err = ecs.NewSystem[component.Transform](e); err != nil {
				return err
			}
			if sys.Counters, err = ecs.NewSystem[component.Counter](e); err != nil {
				return err
			}
			sys.Events = component.NewEvents(0)
			if sys.Steps, err = component.NewStepSystem(e, sys.Events); err != nil {
				return err
			}
			scripts.BindEngine(e)
			scripts.BindTransforms(sys.Transforms)
			if err := scripts.Call("on_init"); err != nil {
				return err
			}
			names, err = scene.Spawn(e, sys, scripts)
			return err
		}),
		ecs.WithOnFree(func(e *ecs.Engine) {
			if err := scripts.Call("on_free"); err != nil {
				log.Error("on_free failed", zap.Error(err))
			}
			if display {
				report(e, sys, names)
				fmt.Println("Goodbye world!")
			}
		}),
		ecs.WithOnFrame(func(e *ecs.Engine) {
			scripts.Poll()
			if cfg.Engine.MaxTicks > 0 && e.Ticks() >= cfg.Engine.MaxTicks {
				e.Stop()
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer engine.Destroy()

	if display {
		printSection("mars")
		printStat("dt", fmt.Sprintf("%g", engine.DT()))
		printStat("systems", fmt.Sprintf("%d", engine.SystemCount()))
		printStat("entities", fmt.Sprintf("%d", engine.EntityCount()))
		printOK("scene " + cfg.Scene.Path + " loaded")
		fmt.Println()
	}

	// 5. Run until stopped, signalled or out of ticks
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := engine.Update(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("engine finished", zap.Uint64("ticks", engine.Ticks()))
	return nil
}

func report(e *ecs.Engine, sys data.Systems, names map[string]ecs.ID) {
	printSection("final state")
	printStat("ticks", fmt.Sprintf("%d", e.Ticks()))
	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		id := names[name]
		if t, ok := sys.Transforms.Component(id); ok {
			printStat(name, fmt.Sprintf("(%.3f, %.3f)", t.X, t.Y))
		}
		if c, ok := sys.Counters.Component(id); ok {
			printStat(name+" updates", fmt.Sprintf("%d", c.N))
		}
	}
	fmt.Println()
}
