package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/sudorandom/polio-dashboard/pkg/charts"
	"github.com/sudorandom/polio-dashboard/pkg/dashboard"
	"github.com/sudorandom/polio-dashboard/pkg/export"
	"github.com/sudorandom/polio-dashboard/pkg/geo"
	"github.com/sudorandom/polio-dashboard/pkg/logging"
	"github.com/sudorandom/polio-dashboard/pkg/metrics"
	"github.com/sudorandom/polio-dashboard/pkg/pipeline"
	"github.com/sudorandom/polio-dashboard/pkg/sources"
	"github.com/sudorandom/polio-dashboard/pkg/utils"
)

type ServeCmd struct {
	Listen  string `help:"Listen address, overrides server.listen."`
	Fetch   bool   `help:"Download missing sources before building."`
	NoCache bool   `help:"Ignore the spec cache."`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		e.cfg.Server.Listen = c.Listen
	}
	if c.Fetch {
		if err := fetchSources(ctx, e); err != nil {
			return err
		}
	}

	m := metrics.New()
	bundle, err := loadBundle(e, m, !c.NoCache)
	if err != nil {
		return err
	}
	srv, err := dashboard.NewServer(bundle, dashboard.Options{
		Logger:  logging.Component(e.logger, "http"),
		Metrics: m,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, e.cfg.Server.Listen, e.cfg.ReadTimeout(), e.cfg.WriteTimeout())
}

type BuildCmd struct {
	Out string `help:"Output directory." type:"path" default:"build"`
}

func (c *BuildCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	res, err := runPipeline(e, nil)
	if err != nil {
		return err
	}
	specs, err := dashboard.NewBundle(res, e.loc).Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Out, 0o755); err != nil {
		return err
	}
	for name, data := range specs {
		path := filepath.Join(c.Out, name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		e.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("Wrote chart spec")
	}
	return nil
}

type ExportCmd struct {
	Out string `help:"Output workbook." type:"path" default:"polio.xlsx"`
}

func (c *ExportCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	res, err := runPipeline(e, nil)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, res, pipeline.PeriodCountryAggregates(res.CountryVaccine, e.loc)); err != nil {
		return err
	}
	if err := os.WriteFile(c.Out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	e.logger.Info().Str("path", c.Out).Msg("Wrote workbook")
	return nil
}

type RenderCmd struct {
	Out    string  `help:"Output directory." type:"path" default:"build/previews"`
	Width  float64 `help:"Image width in inches." default:"16"`
	Height float64 `help:"Image height in inches." default:"7.5"`
}

func (c *RenderCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	res, err := runPipeline(e, nil)
	if err != nil {
		return err
	}
	b := dashboard.NewBundle(res, e.loc)
	if err := os.MkdirAll(c.Out, 0o755); err != nil {
		return err
	}
	w, h := vg.Length(c.Width)*vg.Inch, vg.Length(c.Height)*vg.Inch

	var buf bytes.Buffer
	if err := charts.RenderIncomePNG(&buf, &b.Income, w, h); err != nil {
		return err
	}
	if err := writeFile(e, filepath.Join(c.Out, "income.png"), buf.Bytes()); err != nil {
		return err
	}

	proj := geo.FitProjector(1700, 850)
	for _, period := range b.Map.FrameNames() {
		buf.Reset()
		if err := charts.RenderFramePNG(&buf, &b.Map, period, proj, w, h); err != nil {
			return err
		}
		if err := writeFile(e, filepath.Join(c.Out, "map-"+period+".png"), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

type FetchCmd struct {
	Timeout time.Duration `help:"Overall download timeout." default:"5m"`
}

func (c *FetchCmd) Run(ctx context.Context, g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	return fetchSources(ctx, e)
}

func fetchSources(ctx context.Context, e *env) error {
	fetched, err := sources.Fetch(ctx, http.DefaultClient, e.cfg.SourceFiles(), e.cfg.SourceURLs(), logging.Component(e.logger, "fetch"))
	if err != nil {
		return err
	}
	e.logger.Info().Int("downloaded", len(fetched)).Msg("Sources ready")
	return nil
}

func writeFile(e *env, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	e.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("Wrote preview")
	return nil
}

// runPipeline loads the sources and derives every table, recording the run
// on m when it is non-nil.
func runPipeline(e *env, m *metrics.Metrics) (*pipeline.Result, error) {
	start := time.Now()
	res, err := pipeline.RunFiles(e.cfg.SourceFiles(), logging.Component(e.logger, "pipeline"))
	if err != nil {
		return nil, err
	}
	e.logger.Info().
		Int("cases", len(res.Cases)).
		Int("income_series", len(res.IncomeSeries)).
		Int("country_vaccine", len(res.CountryVaccine)).
		Dur("took", time.Since(start)).
		Msg("Pipeline finished")
	if m != nil {
		m.ObservePipeline(time.Since(start), map[string]int{
			"cases":           len(res.Cases),
			"income_series":   len(res.IncomeSeries),
			"country_vaccine": len(res.CountryVaccine),
		})
	}
	return res, nil
}

// loadBundle returns the chart specs, from the spec cache when the inputs
// are unchanged and by running the pipeline otherwise.
func loadBundle(e *env, m *metrics.Metrics, useCache bool) (*dashboard.Bundle, error) {
	if !useCache || e.cfg.CacheDir == "" {
		return buildBundle(e, m)
	}

	logger := logging.Component(e.logger, "cache")
	store, err := utils.OpenSpecStore(e.cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open spec cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing spec cache")
		}
	}()

	var coords bytes.Buffer
	if _, err := e.loc.WriteTo(&coords); err != nil {
		return nil, err
	}
	files := e.cfg.SourceFiles()
	fp, err := utils.Fingerprint(dashboard.BuilderVersion,
		[]string{files.Cases, files.Metadata, files.Population, files.Vaccine}, coords.Bytes())
	if err != nil {
		// Missing inputs fail in the pipeline with a clearer error.
		m.CacheLookups.WithLabelValues("error").Inc()
		return buildBundle(e, m)
	}
	prefix := fp + "/"

	specs := make(map[string][]byte)
	for _, name := range []string{dashboard.SpecIncome, dashboard.SpecMap} {
		data, err := store.Get(prefix + name)
		if err != nil {
			m.CacheLookups.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Msg("Spec cache read failed")
			break
		}
		if data != nil {
			specs[name] = data
		}
	}
	if len(specs) == 2 {
		b, err := dashboard.DecodeBundle(specs)
		if err == nil {
			m.CacheLookups.WithLabelValues("hit").Inc()
			m.FramesBuilt.Set(float64(len(b.Map.Frames)))
			logger.Info().Str("fingerprint", fp).Msg("Loaded chart specs from cache")
			return b, nil
		}
		logger.Warn().Err(err).Msg("Cached specs are unreadable, rebuilding")
	}
	m.CacheLookups.WithLabelValues("miss").Inc()

	b, err := buildBundle(e, m)
	if err != nil {
		return nil, err
	}
	encoded, err := b.Encode()
	if err != nil {
		return nil, err
	}
	entries := make(map[string][]byte, len(encoded))
	for name, data := range encoded {
		entries[prefix+name] = data
	}
	if err := store.PutBatch(entries); err != nil {
		logger.Warn().Err(err).Msg("Spec cache write failed")
		return b, nil
	}
	if n, err := store.Prune(prefix); err != nil {
		logger.Warn().Err(err).Msg("Spec cache prune failed")
	} else if n > 0 {
		logger.Debug().Int("removed", n).Msg("Pruned stale specs")
	}
	return b, nil
}

func buildBundle(e *env, m *metrics.Metrics) (*dashboard.Bundle, error) {
	res, err := runPipeline(e, m)
	if err != nil {
		return nil, err
	}
	b := dashboard.NewBundle(res, e.loc)
	m.FramesBuilt.Set(float64(len(b.Map.Frames)))
	return b, nil
}
