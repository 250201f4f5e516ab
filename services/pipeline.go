package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"station-homes/models"
	"station-homes/storage"
	"station-homes/utils"
)

// ErrRunInProgress is returned when a run is requested while another is
// still active. Runs never queue.
var ErrRunInProgress = errors.New("another run is already in progress")

// RunContext identifies one daily run: its calendar date and cache
// directory. It is passed explicitly rather than held as process state.
type RunContext struct {
	Date string
	Dir  string
}

// NewRunContext builds the run context for a date (YYYYMMDD) under the cache
// root.
func NewRunContext(cacheRoot, date string) RunContext {
	return RunContext{Date: date, Dir: storage.RunDir(cacheRoot, date)}
}

// TodayRunContext builds the run context for the current date.
func TodayRunContext(cacheRoot string) RunContext {
	return NewRunContext(cacheRoot, time.Now().Format("20060102"))
}

// ReportSummary describes what the downstream stages produced.
type ReportSummary struct {
	Batches           int
	TotalRecords      int
	DuplicatesRemoved int
	Eligible          int
	Inventory         []models.InventoryRow
}

// Pipeline owns the pipeline stages and enforces the single-in-flight-run
// invariant.
type Pipeline struct {
	scheduler *Scheduler
	dedup     *Deduplicator
	filter    *Filter
	agg       *Aggregator
	logger    *utils.Logger

	// stationNames labels inventory rows with the stations serving each
	// zip code. Optional.
	stationNames func(zip string) string

	mu   sync.Mutex
	busy bool
}

// NewPipeline wires the stages together.
func NewPipeline(scheduler *Scheduler, dedup *Deduplicator, filter *Filter, agg *Aggregator, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		scheduler: scheduler,
		dedup:     dedup,
		filter:    filter,
		agg:       agg,
		logger:    logger,
	}
}

// SetStationNames registers the zip → station names lookup used to label
// inventory rows.
func (p *Pipeline) SetStationNames(lookup func(zip string) string) {
	p.stationNames = lookup
}

func (p *Pipeline) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return ErrRunInProgress
	}
	p.busy = true
	return nil
}

func (p *Pipeline) release() {
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}

// Fetch runs the acquisition stage only.
func (p *Pipeline) Fetch(ctx context.Context, rc RunContext, byZip map[string][]models.Station, params FetchParams) error {
	if err := p.acquire(); err != nil {
		return err
	}
	defer p.release()
	return p.scheduler.Fetch(ctx, rc.Dir, byZip, params)
}

// Report runs the downstream stages against whatever cache exists for the
// run: global dedup, eligibility filter, inventory aggregation, then the
// filtered set into every sink and the inventory rows into the summary CSV.
func (p *Pipeline) Report(rc RunContext, allowed map[string]struct{}, sinks []storage.ListingSink, inventoryPath string) (*ReportSummary, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()
	return p.report(rc, allowed, sinks, inventoryPath)
}

// Run executes the full pipeline under one guard acquisition.
func (p *Pipeline) Run(ctx context.Context, rc RunContext, byZip map[string][]models.Station, params FetchParams,
	allowed map[string]struct{}, sinks []storage.ListingSink, inventoryPath string) (*ReportSummary, error) {

	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	if err := p.scheduler.Fetch(ctx, rc.Dir, byZip, params); err != nil {
		return nil, err
	}
	return p.report(rc, allowed, sinks, inventoryPath)
}

func (p *Pipeline) report(rc RunContext, allowed map[string]struct{}, sinks []storage.ListingSink, inventoryPath string) (*ReportSummary, error) {
	batches := storage.ReadAllBatches(rc.Dir, allowed, p.logger)

	total := 0
	for _, b := range batches {
		total += len(b.Records)
	}

	unique, removed := p.dedup.Merge(batches)
	eligible := p.filter.Apply(unique)
	inventory := p.agg.Aggregate(eligible, p.stationNames)

	for _, sink := range sinks {
		if err := sink.Write(eligible); err != nil {
			return nil, err
		}
	}

	if inventoryPath != "" {
		if err := storage.WriteInventoryCSV(inventoryPath, inventory); err != nil {
			return nil, err
		}
	}

	return &ReportSummary{
		Batches:           len(batches),
		TotalRecords:      total,
		DuplicatesRemoved: removed,
		Eligible:          len(eligible),
		Inventory:         inventory,
	}, nil
}
