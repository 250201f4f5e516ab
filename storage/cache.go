package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"station-homes/models"
	"station-homes/utils"
)

// The per-run cache is a directory of <zip>.json files. Existence of the
// directory marks the run as fully fetched; existence of a file marks that
// zip as fetched. Both checks matter: partial-run resume depends on the
// per-file one.

// RunDir returns the cache directory for a run date (YYYYMMDD).
func RunDir(root, date string) string {
	return filepath.Join(root, date)
}

// RunExists reports whether a run's cache directory already exists.
func RunExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// BatchExists reports whether a zip code already has a cache file in the run
// directory.
func BatchExists(dir, zip string) bool {
	_, err := os.Stat(batchPath(dir, zip))
	return err == nil
}

func batchPath(dir, zip string) string {
	return filepath.Join(dir, zip+".json")
}

// EnsureRunDir creates the run directory if needed.
func EnsureRunDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cache: create run dir %q: %w", dir, err)
	}
	return nil
}

// WriteBatch persists one zip code's batch to its cache file.
func WriteBatch(dir string, batch *models.PostalCodeBatch) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal batch %s: %w", batch.ZipCode, err)
	}
	path := batchPath(dir, batch.ZipCode)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cache: write %q: %w", path, err)
	}
	return nil
}

// ReadAllBatches loads every batch file in the run directory, in sorted
// filename order. Files whose zip code is outside the allow-list (when one is
// set) are skipped, as are malformed files, with a warning rather than an
// error. A missing directory yields an empty result.
func ReadAllBatches(dir string, allowed map[string]struct{}, logger *utils.Logger) []*models.PostalCodeBatch {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("[cache] Directory %s does not exist", dir)
		return nil
	}

	var batches []*models.PostalCodeBatch
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		zip := strings.TrimSuffix(name, ".json")
		if allowed != nil {
			if _, ok := allowed[zip]; !ok {
				logger.Debug("[cache] Skipping %s - not in allowed zip codes", name)
				continue
			}
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("[cache] Error reading %s: %v", name, err)
			continue
		}

		batch, err := decodeBatch(zip, data)
		if err != nil {
			logger.Warn("[cache] Error loading %s: %v", name, err)
			continue
		}
		batches = append(batches, batch)
	}
	return batches
}

// decodeBatch accepts both the batch object format and the legacy bare
// listing array produced by earlier tooling.
func decodeBatch(zip string, data []byte) (*models.PostalCodeBatch, error) {
	var batch models.PostalCodeBatch
	if err := json.Unmarshal(data, &batch); err == nil {
		if batch.ZipCode == "" {
			batch.ZipCode = zip
		}
		return &batch, nil
	}

	var records []*models.ListingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return &models.PostalCodeBatch{ZipCode: zip, Records: records}, nil
}
