package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guidoenr/barviz/internal/app"
	"github.com/guidoenr/barviz/internal/audio"
	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/logging"
	"github.com/guidoenr/barviz/internal/render"
	"github.com/guidoenr/barviz/internal/web"
)

const defaultConfigFile = "barviz.json"

type options struct {
	configPath  string
	device      string
	fps         float64
	noAudio     bool
	debug       bool
	logFile     string
	webPort     int
	profilePath string
	sdl         bool
	sdlCols     int
	sdlRows     int
	sdlCell     int
	color       string
	noWatch     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "barviz",
		Short: "Audio spectrum visualizer for the terminal",
		Long: `barviz captures an audio input device and draws a live spectrum of
bars with optional effect layers, text banners and image backgrounds.

Keys:
  q / Esc  quit
  r        random theme
  m        toggle mirror
  s        cycle bar style`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigFile, "settings file (.json, .toml or .yaml)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", logging.DefaultFile, "log file, empty disables logging")
	flags.BoolVar(&opts.noAudio, "no-audio", false, "use the synthetic tone generator instead of PortAudio")

	local := root.Flags()
	local.StringVar(&opts.device, "device", "", `input device: "Default", "[N] Name", a name fragment or "none"`)
	local.Float64Var(&opts.fps, "fps", 0, "target frames per second")
	local.IntVar(&opts.webPort, "web-port", 0, "serve the control API on this port")
	local.StringVar(&opts.profilePath, "profile", "", "append per-frame timings to this CSV file")
	local.BoolVar(&opts.sdl, "sdl", false, "draw into an SDL window (needs a build with -tags sdl)")
	local.IntVar(&opts.sdlCols, "sdl-cols", 120, "SDL window width in cells")
	local.IntVar(&opts.sdlRows, "sdl-rows", 40, "SDL window height in cells")
	local.IntVar(&opts.sdlCell, "sdl-cell", 10, "SDL cell size in pixels")
	local.StringVar(&opts.color, "color", "truecolor", "terminal colors: truecolor, 256 or none")
	local.BoolVar(&opts.noWatch, "no-watch", false, "do not reload the settings file on change")

	root.AddCommand(newDevicesCmd(opts), newThemesCmd())
	return root
}

func run(cmd *cobra.Command, opts *options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, closer := logging.New(logging.Options{Path: opts.logFile, Debug: opts.debug})
	defer closer.Close()

	store, err := loadSettings(opts, logger)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, store)

	if !opts.noWatch && opts.configPath != "" {
		watcher, err := config.NewWatcher(opts.configPath, store, logging.Component(logger, "config"))
		if err != nil {
			logger.Warn().Err(err).Msg("settings file not watched")
		} else {
			go watcher.Run(ctx)
		}
	}

	backend, release, err := openBackend(opts)
	if err != nil {
		return err
	}
	defer release()

	cfg := store.Current()
	worker := audio.NewWorker(audio.WorkerConfig{
		Backend:       backend,
		Logger:        logging.Component(logger, "audio"),
		BeatEnabled:   cfg.BeatEnabled,
		BeatThreshold: cfg.BeatThreshold,
	})

	surface, keyboard, err := openSurface(opts)
	if err != nil {
		return err
	}
	defer surface.Close()

	a, err := app.New(app.Config{
		Store:       store,
		Worker:      worker,
		Surface:     surface,
		Logger:      logging.Component(logger, "app"),
		ProfilePath: opts.profilePath,
		Keyboard:    keyboard,
	})
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("cleanup")
		}
	}()

	if opts.webPort > 0 {
		srv := web.NewServer(store, a, opts.configPath, logging.Component(logger, "web"))
		go func() {
			if err := srv.Start(ctx, opts.webPort); err != nil {
				logger.Error().Err(err).Msg("web server stopped")
			}
		}()
	}

	logger.Info().Str("config", opts.configPath).Bool("synthetic", opts.noAudio).Msg("starting")
	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	logger.Info().Msg("exiting")
	return nil
}

// loadSettings reads the settings file into a store. Rejected fields keep
// their defaults and are logged.
func loadSettings(opts *options, logger *zerolog.Logger) (*config.Store, error) {
	cfg, warnings, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	for _, w := range warnings {
		logger.Warn().Err(w).Str("path", opts.configPath).Msg("settings field ignored")
	}
	return config.NewStore(cfg), nil
}

func applyFlags(cmd *cobra.Command, opts *options, store *config.Store) {
	flags := cmd.Flags()
	store.Update(func(c *config.Config) {
		if flags.Changed("device") {
			c.Device = opts.device
		}
		if flags.Changed("fps") && opts.fps > 0 {
			c.FPS = opts.fps
		}
		if opts.noAudio && !flags.Changed("device") {
			c.Device = "Default"
		}
	})
}

func openBackend(opts *options) (audio.Backend, func(), error) {
	if opts.noAudio {
		return app.NewSynthetic(), func() {}, nil
	}
	if err := audio.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return audio.PortAudio{}, audio.Terminate, nil
}

// openSurface picks the SDL window or the terminal. Keyboard controls are
// only read from an interactive terminal.
func openSurface(opts *options) (render.Surface, bool, error) {
	if opts.sdl {
		if !render.SupportsSDL() {
			return nil, false, fmt.Errorf("this binary was built without SDL support")
		}
		s, err := render.OpenSDL(opts.sdlCols, opts.sdlRows, opts.sdlCell)
		if err != nil {
			return nil, false, fmt.Errorf("open SDL window: %w", err)
		}
		return s, false, nil
	}

	t := render.NewTerminal(os.Stdout, render.ParseColorDepth(opts.color))
	if err := t.Enter(); err != nil {
		return nil, false, fmt.Errorf("prepare terminal: %w", err)
	}
	return t, term.IsTerminal(int(os.Stdin.Fd())), nil
}

func printTable(out io.Writer, format string, rows [][]any) {
	for _, row := range rows {
		fmt.Fprintf(out, format, row...)
	}
}
