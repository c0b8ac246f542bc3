package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/config"
	"github.com/san-kum/inertial/internal/metrics"
	"github.com/san-kum/inertial/internal/physics"
	"github.com/san-kum/inertial/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string                     `json:"id"`
	Scenario   string                     `json:"scenario"`
	Timestamp  time.Time                  `json:"timestamp"`
	Dt         float64                    `json:"dt"`
	Duration   float64                    `json:"duration"`
	Integrator string                     `json:"integrator"`
	Steps      int                        `json:"steps"`
	Ships      []string                   `json:"ships"`
	Metrics    map[string]float64         `json:"metrics"`
	Speed      map[string]metrics.Summary `json:"speed,omitempty"`
}

// Track is one ship's recorded trajectory. Each row of States follows
// physics.VectorLabels.
type Track struct {
	Ship   string      `json:"ship"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// Column returns the named state column, or nil for an unknown label.
func (t *Track) Column(label string) []float64 {
	idx := slices.Index(physics.VectorLabels, label)
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.States))
	for _, row := range t.States {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}

// Save writes the run under a fresh ID and returns it.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run dir")
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   cfg.Name,
		Timestamp:  time.Now(),
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Steps:      result.StepsTaken,
		Ships:      result.Names(),
		Metrics:    result.Metrics,
		Speed:      speedSummaries(result),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func speedSummaries(result *sim.Result) map[string]metrics.Summary {
	series := make(map[string][]float64)
	for _, f := range result.Frames {
		for _, snap := range f.Ships {
			series[snap.Name] = append(series[snap.Name], snap.State.Velocity().Norm())
		}
	}
	out := make(map[string]metrics.Summary, len(series))
	for name, values := range series {
		if sum, err := metrics.Summarize(values); err == nil {
			out[name] = sum
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create metadata")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode metadata")
}

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create states")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time", "ship"}, physics.VectorLabels...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, frame := range result.Frames {
		t := strconv.FormatFloat(frame.Time, 'f', 6, 64)
		for _, snap := range frame.Ships {
			row := []string{t, snap.Name}
			for _, val := range snap.State.Vector() {
				row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "write states")
}

// List returns every stored run, newest first. Unreadable entries are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &meta, nil
}

// LoadTracks reads the recorded states back, one Track per ship in the order
// ships first appear.
func (s *Store) LoadTracks(runID string) ([]*Track, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s states", runID)
	}

	tracks := make([]*Track, 0)
	byShip := make(map[string]*Track)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		state := make([]float64, 0, len(record)-2)
		for _, field := range record[2:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "run %s line %d", runID, i+1)
			}
			state = append(state, val)
		}

		tr, ok := byShip[record[1]]
		if !ok {
			tr = &Track{Ship: record[1]}
			byShip[record[1]] = tr
			tracks = append(tracks, tr)
		}
		tr.Times = append(tr.Times, t)
		tr.States = append(tr.States, state)
	}
	return tracks, nil
}
