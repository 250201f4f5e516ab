package services

import (
	"context"
	"sort"

	"station-homes/models"
	"station-homes/storage"
	"station-homes/utils"
)

// Scheduler fans the zip codes out over a bounded worker pool. Stations
// within one zip code stay sequential, so total concurrent outbound queries
// never exceed the worker count.
type Scheduler struct {
	merger      *Merger
	logger      *utils.Logger
	maxWorkers  int
	rateLimitMs int
}

// NewScheduler creates a Scheduler running at most maxWorkers zip codes at a
// time, with at least rateLimitMs between job starts.
func NewScheduler(merger *Merger, maxWorkers, rateLimitMs int, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		merger:      merger,
		logger:      logger,
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
	}
}

// Fetch acquires all zip codes that still need fetching for the run and
// caches each result as soon as its worker finishes.
//
// If the run directory already exists the whole fetch is skipped, even when
// some zip codes lack cache files; the finer per-zip resume only applies to
// the invocation that creates the directory.
func (s *Scheduler) Fetch(ctx context.Context, runDir string, byZip map[string][]models.Station, params FetchParams) error {
	if storage.RunExists(runDir) {
		s.logger.Info("[scheduler] Run directory %s already exists, skipping fetch", runDir)
		return nil
	}
	if err := storage.EnsureRunDir(runDir); err != nil {
		return err
	}

	type zipWork struct {
		zip      string
		stations []models.Station
	}
	var queue []zipWork
	for zip, sts := range byZip {
		if storage.BatchExists(runDir, zip) {
			s.logger.Info("[scheduler] Data for %s already exists, skipping", zip)
			continue
		}
		queue = append(queue, zipWork{zip: zip, stations: sts})
	}

	// Zip codes with more stations mean more work; schedule them first so
	// they don't straggle at the end of the pool.
	sort.Slice(queue, func(i, j int) bool {
		if len(queue[i].stations) != len(queue[j].stations) {
			return len(queue[i].stations) > len(queue[j].stations)
		}
		return queue[i].zip < queue[j].zip
	})

	s.logger.Info("[scheduler] Fetching %d zip codes with %d workers", len(queue), s.maxWorkers)

	pool := utils.NewWorkerPool(s.maxWorkers, s.rateLimitMs)
	pool.OnPanic(func(r any) {
		s.logger.Error("[scheduler] Worker panic escaped job recovery: %v", r)
	})

	for _, w := range queue {
		w := w
		pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("[scheduler] Zip %s failed: %v (will retry next run)", w.zip, r)
				}
			}()

			batch := s.merger.MergeZip(ctx, w.zip, w.stations, params)
			if err := storage.WriteBatch(runDir, batch); err != nil {
				s.logger.Error("[scheduler] Zip %s: %v (will retry next run)", w.zip, err)
				return
			}
			s.logger.Info("[scheduler] Saved %d listings for %s", len(batch.Records), w.zip)
		})
	}
	pool.Wait()

	return nil
}
