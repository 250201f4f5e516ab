package stations

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"station-homes/models"
	"station-homes/utils"
)

// Column headers recognized in the stations CSV. Extra columns pass through
// unused.
const (
	colName      = "Station Name"
	colLatitude  = "Latitude"
	colLongitude = "Longitude"
	colZipCode   = "Zip Code"
	colBranch    = "Branch"
)

// Zip-code sentinels written by the enrichment step when reverse geocoding
// failed; rows carrying them are excluded.
var zipSentinels = map[string]struct{}{
	"N/A":   {},
	"ERROR": {},
}

// Index groups the loaded rail stations by zip code.
type Index struct {
	byZip map[string][]models.Station
}

// Load reads the stations CSV and builds an Index. Rows with unparsable
// coordinates or a sentinel zip code are dropped with a warning; when allowed
// is non-nil, zip codes outside it are excluded. A missing required column is
// fatal.
func Load(path string, allowed map[string]struct{}, logger *utils.Logger) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stations: open %q: %w", path, err)
	}
	defer f.Close()

	return parse(f, allowed, logger)
}

func parse(r io.Reader, allowed map[string]struct{}, logger *utils.Logger) (*Index, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("stations: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colName, colLatitude, colLongitude, colZipCode} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("stations: missing required column %q", required)
		}
	}

	idx := &Index{byZip: make(map[string][]models.Station)}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("[stations] Skipping malformed row: %v", err)
			continue
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := field(colName)
		zip := field(colZipCode)
		if zip == "" {
			continue
		}
		if _, sentinel := zipSentinels[zip]; sentinel {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[zip]; !ok {
				continue
			}
		}

		lat, latErr := strconv.ParseFloat(field(colLatitude), 64)
		lng, lngErr := strconv.ParseFloat(field(colLongitude), 64)
		if latErr != nil || lngErr != nil {
			logger.Warn("[stations] Dropping %q: invalid coordinates (%q, %q)",
				name, field(colLatitude), field(colLongitude))
			continue
		}

		idx.byZip[zip] = append(idx.byZip[zip], models.Station{
			Name:      name,
			Latitude:  lat,
			Longitude: lng,
			ZipCode:   zip,
			Branch:    field(colBranch),
		})
	}

	return idx, nil
}

// ByZip returns the zip code → stations mapping. Stations keep file order.
func (idx *Index) ByZip() map[string][]models.Station {
	return idx.byZip
}

// Zips returns all zip codes in the index, sorted ascending.
func (idx *Index) Zips() []string {
	zips := make([]string, 0, len(idx.byZip))
	for zip := range idx.byZip {
		zips = append(zips, zip)
	}
	sort.Strings(zips)
	return zips
}

// StationCount returns the total number of stations across all zip codes.
func (idx *Index) StationCount() int {
	n := 0
	for _, sts := range idx.byZip {
		n += len(sts)
	}
	return n
}

// StationNames returns the distinct station names for a zip code,
// alphabetically sorted and comma-joined. Used by the report writers.
func (idx *Index) StationNames(zip string) string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range idx.byZip[zip] {
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// LoadAllowedZips reads the newline-delimited allow-list. A missing file
// means "no filtering" and returns a nil map.
func LoadAllowedZips(path string, logger *utils.Logger) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("[stations] %s not found, will process all zip codes", path)
			return nil, nil
		}
		return nil, fmt.Errorf("stations: open allow-list %q: %w", path, err)
	}
	defer f.Close()

	allowed := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		zip := strings.TrimSpace(scanner.Text())
		if zip != "" {
			allowed[zip] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("stations: read allow-list %q: %w", path, err)
	}
	return allowed, nil
}
