package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Tracks []*Track    `json:"tracks"`
}

// Export writes a stored run as one JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tracks, err := s.LoadTracks(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(ExportData{Run: *meta, Tracks: tracks}), "encode export")
}

func (s *Store) ExportFile(path, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export")
	}
	defer f.Close()
	return s.Export(f, runID)
}

// StatesPath is the location of a run's raw CSV.
func (s *Store) StatesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, statesFile)
}
