package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/sudorandom/polio-dashboard/pkg/config"
	"github.com/sudorandom/polio-dashboard/pkg/geo"
	"github.com/sudorandom/polio-dashboard/pkg/logging"
)

// Globals are the flags shared by every command. Non-empty values override
// the configuration file.
type Globals struct {
	Config    string `help:"Path to the YAML configuration file." type:"path"`
	DataDir   string `help:"Directory holding the source CSV files." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (console, json)."`
}

// env is what every command runs with once the globals are resolved.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	loc    *geo.Table
}

func (g *Globals) setup() (*env, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	loc, err := geo.LoadFile(cfg.CoordinatesFile)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("data_dir", cfg.DataDir).Int("coordinates", loc.Len()).Msg("Configuration loaded")
	return &env{cfg: cfg, logger: logger, loc: loc}, nil
}

type CLI struct {
	Globals

	Serve  ServeCmd  `cmd:"" default:"1" help:"Build the charts and serve the dashboard."`
	Build  BuildCmd  `cmd:"" help:"Write the chart specs as JSON."`
	Export ExportCmd `cmd:"" help:"Write the derived tables to an xlsx workbook."`
	Render RenderCmd `cmd:"" help:"Write PNG previews of the charts."`
	Fetch  FetchCmd  `cmd:"" help:"Download missing source files."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("polio-dashboard"),
		kong.Description("Polio cases and vaccination coverage dashboard."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}
