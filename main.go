package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"station-homes/config"
	"station-homes/models"
	"station-homes/scraper/rentcast"
	"station-homes/services"
	"station-homes/stations"
	"station-homes/storage"
	"station-homes/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	app := &cli.App{
		Name:  "station-homes",
		Usage: "Aggregate for-sale listings around commuter rail stations",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fetch today's listings (if needed) and generate the report CSVs",
				Action: func(c *cli.Context) error {
					env, err := newEnv(cfg, logger, true)
					if err != nil {
						return err
					}
					rc := services.TodayRunContext(cfg.CacheRoot)

					sinks, inventoryPath, closeSinks, err := buildSinks(cfg, env, logger)
					if err != nil {
						return err
					}
					defer closeSinks()

					summary, err := env.pipeline.Run(c.Context, rc, env.index.ByZip(),
						env.params, env.allowed, sinks, inventoryPath)
					if err != nil {
						return err
					}
					env.printSummary(summary)
					return nil
				},
			},
			{
				Name:  "fetch",
				Usage: "Populate today's listing cache only",
				Action: func(c *cli.Context) error {
					env, err := newEnv(cfg, logger, true)
					if err != nil {
						return err
					}
					rc := services.TodayRunContext(cfg.CacheRoot)
					return env.pipeline.Fetch(c.Context, rc, env.index.ByZip(), env.params)
				},
			},
			{
				Name:  "report",
				Usage: "Generate the report CSVs from an existing cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Run date (YYYYMMDD)",
						Value: time.Now().Format("20060102"),
					},
				},
				Action: func(c *cli.Context) error {
					env, err := newEnv(cfg, logger, false)
					if err != nil {
						return err
					}
					rc := services.NewRunContext(cfg.CacheRoot, c.String("date"))

					sinks, inventoryPath, closeSinks, err := buildSinks(cfg, env, logger)
					if err != nil {
						return err
					}
					defer closeSinks()

					summary, err := env.pipeline.Report(rc, env.allowed, sinks, inventoryPath)
					if err != nil {
						return err
					}
					env.printSummary(summary)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// env holds the wired pipeline and its inputs for one invocation.
type env struct {
	index    *stations.Index
	allowed  map[string]struct{}
	params   services.FetchParams
	pipeline *services.Pipeline
	agg      *services.Aggregator
	logger   *utils.Logger
}

// newEnv loads the inputs and wires the pipeline. Missing required inputs are
// fatal here, before any fetching begins. The API key is only required when
// the invocation can fetch.
func newEnv(cfg *config.Config, logger *utils.Logger, needsAPIKey bool) (*env, error) {
	if needsAPIKey && cfg.RentCastAPIKey == "" {
		return nil, fmt.Errorf("RENTCAST_API_KEY environment variable not set")
	}
	if _, err := os.Stat(cfg.StationsCSV); err != nil {
		return nil, fmt.Errorf("stations CSV %s not found", cfg.StationsCSV)
	}

	allowed, err := stations.LoadAllowedZips(cfg.ZipCodesFile, logger)
	if err != nil {
		return nil, err
	}
	if allowed != nil {
		logger.Info("Loaded %d allowed zip codes", len(allowed))
	}

	index, err := stations.Load(cfg.StationsCSV, allowed, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d stations across %d zip codes", index.StationCount(), len(index.Zips()))

	source := &rentcastSource{client: rentcast.New(cfg.RentCastAPIKey)}
	merger := services.NewMerger(source, logger)
	scheduler := services.NewScheduler(merger, cfg.MaxConcurrency, cfg.RateLimitMs, logger)
	dedup := services.NewDeduplicator(logger)
	filter := services.NewFilter(services.EligibilityPolicy{
		MaxPrice:     cfg.MaxPrice,
		MinBedrooms:  cfg.MinBedrooms,
		MinBathrooms: cfg.MinBathrooms,
	}, logger)
	agg := services.NewAggregator(logger)

	pipeline := services.NewPipeline(scheduler, dedup, filter, agg, logger)
	pipeline.SetStationNames(index.StationNames)

	return &env{
		index:   index,
		allowed: allowed,
		params: services.FetchParams{
			RadiusMiles: cfg.SearchRadiusMiles,
			MaxPrice:    cfg.MaxPrice,
			Status:      cfg.ListingStatus,
			Limit:       cfg.ResultLimit,
		},
		pipeline: pipeline,
		agg:      agg,
		logger:   logger,
	}, nil
}

// buildSinks creates the filtered-listings CSV writer (always) and the
// Postgres writer (when enabled), plus the inventory CSV path.
func buildSinks(cfg *config.Config, e *env, logger *utils.Logger) ([]storage.ListingSink, string, func(), error) {
	timestamp := time.Now().Format("20060102_150405")
	listingPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("homes-%s.csv", timestamp))
	inventoryPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("zip_code_inventory-%s.csv", timestamp))

	var allStations []models.Station
	for _, sts := range e.index.ByZip() {
		allStations = append(allStations, sts...)
	}

	csvWriter, err := storage.NewListingCSVWriter(listingPath, allStations)
	if err != nil {
		return nil, "", nil, err
	}
	sinks := []storage.ListingSink{csvWriter}

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			_ = csvWriter.Close()
			return nil, "", nil, err
		}
		sinks = append(sinks, pgWriter)
	}

	logger.Info("Writing filtered listings to %s", listingPath)
	closeAll := func() {
		for _, sink := range sinks {
			_ = sink.Close()
		}
	}
	return sinks, inventoryPath, closeAll, nil
}

func (e *env) printSummary(summary *services.ReportSummary) {
	e.logger.Info("Run complete: %d batches, %d records, %d duplicates removed, %d eligible",
		summary.Batches, summary.TotalRecords, summary.DuplicatesRemoved, summary.Eligible)
	e.agg.Print(summary.Inventory, summary.Eligible)
}

// rentcastSource adapts the RentCast client to the pipeline's ListingSource.
type rentcastSource struct {
	client *rentcast.Client
}

func (s *rentcastSource) SearchNearby(ctx context.Context, lat, lng float64, p services.FetchParams) ([]*models.ListingRecord, error) {
	return s.client.SearchNearby(ctx, rentcast.SearchQuery{
		Latitude:    lat,
		Longitude:   lng,
		RadiusMiles: p.RadiusMiles,
		MaxPrice:    p.MaxPrice,
		Status:      p.Status,
		Limit:       p.Limit,
	})
}
