package catalog

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scythe504/sketchguess-backend/internal"
)

// Load picks a loader from the file extension.
func Load(path string, log *slog.Logger) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, log)
	default:
		return LoadJSON(path, log)
	}
}

// LoadJSON reads either a bare array of sketches or an object with an
// "entries" array.
func LoadJSON(path string, log *slog.Logger) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var sketches []internal.Sketch
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Entries []internal.Sketch `json:"entries"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		sketches = wrapped.Entries
	} else if err := json.Unmarshal(raw, &sketches); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	return Build(sketches, log), nil
}

// LoadCSV reads rows of name,youtubeId[,difficulty[,description]].
// Malformed rows are skipped.
func LoadCSV(path string, log *slog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s as csv: %w", path, err)
	}

	var sketches []internal.Sketch
	for _, record := range records {
		if len(record) >= 2 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		if len(record) < 2 {
			log.Warn("Skipping invalid catalog record", "record", record)
			continue
		}

		sketch := internal.Sketch{
			Name:      strings.TrimSpace(record[0]),
			YoutubeID: strings.TrimSpace(record[1]),
		}
		if len(record) > 2 {
			sketch.Difficulty = internal.Difficulty(strings.ToLower(strings.TrimSpace(record[2])))
		}
		if len(record) > 3 {
			sketch.Description = strings.TrimSpace(record[3])
		}
		sketches = append(sketches, sketch)
	}

	return Build(sketches, log), nil
}
