// Package source turns JSON test-data files into ordered record sequences.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sensor-anomaly-analyzer/models"
	"sensor-anomaly-analyzer/utils"
)

var (
	// ErrNotFound reports an input that cannot be located.
	ErrNotFound = errors.New("source not found")
	// ErrMalformed reports an input that cannot be parsed into records.
	ErrMalformed = errors.New("source malformed")
)

// recordWire keeps every field optional so that missing values can be told apart from zeros.
type recordWire struct {
	Timestamp   *float64 `json:"timestamp"`
	Temperature *float64 `json:"temperature"`
	VibrationX  *float64 `json:"vibration_x"`
	VibrationY  *float64 `json:"vibration_y"`
	Voltage     *float64 `json:"voltage"`
}

func (w recordWire) record() (models.Record, error) {
	var missing []string
	field := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}

	r := models.Record{
		Timestamp:   field("timestamp", w.Timestamp),
		Temperature: field("temperature", w.Temperature),
		VibrationX:  field("vibration_x", w.VibrationX),
		VibrationY:  field("vibration_y", w.VibrationY),
		Voltage:     field("voltage", w.Voltage),
	}
	if len(missing) > 0 {
		return models.Record{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if err := r.Validate(); err != nil {
		return models.Record{}, err
	}
	return r, nil
}

// Decode parses a JSON array of record objects. Any structural problem, including data after
// the array, is reported as ErrMalformed.
func Decode(r io.Reader) ([]models.Record, error) {
	dec := json.NewDecoder(r)

	var wire []recordWire
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after the record array", ErrMalformed)
	}

	return convert(wire)
}

// DecodeBytes is Decode for an in-memory payload.
func DecodeBytes(data []byte) ([]models.Record, error) {
	var wire []recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return convert(wire)
}

func convert(wire []recordWire) ([]models.Record, error) {
	records := make([]models.Record, 0, len(wire))
	for i, w := range wire {
		rec, err := w.record()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadFile reads the records stored at path.
func LoadFile(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, utils.NewAppError("load "+path, "file not found", fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return nil, utils.NewAppError("load "+path, "open file", fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, utils.NewAppError("load "+path, "invalid JSON format", err)
	}
	return records, nil
}

// ListInputs returns the .json files directly inside dir, sorted by name.
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, utils.NewAppError("list "+dir, "directory not found", fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return nil, utils.NewAppError("list "+dir, "read directory", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Resolve expands path into input files: a file yields itself, a directory its .json files.
func Resolve(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, utils.NewAppError("resolve "+path, "input not found", fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return nil, utils.NewAppError("resolve "+path, "stat input", err)
	}
	if info.IsDir() {
		return ListInputs(path)
	}
	return []string{path}, nil
}

// Name is the identifier used for a source in reports: the file name without its extension.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// UniqueNames returns one report name per path. Paths whose Name collides with an earlier one
// (compared case-insensitively, since report files may land on a case-insensitive filesystem)
// keep their extension, and a numeric suffix is added if that still collides.
func UniqueNames(paths []string) []string {
	names := make([]string, len(paths))
	taken := make(map[string]bool, len(paths))

	for i, path := range paths {
		name := Name(path)
		if taken[strings.ToLower(name)] {
			base := filepath.Base(path)
			name = strings.TrimSuffix(base, filepath.Ext(base)) + "_" + strings.TrimPrefix(filepath.Ext(base), ".")
			candidate := name
			for n := 2; taken[strings.ToLower(candidate)]; n++ {
				candidate = fmt.Sprintf("%s-%d", name, n)
			}
			name = candidate
		}
		taken[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}
