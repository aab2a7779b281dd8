package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/socialnavi/pedtrack/internal/detection"
	"github.com/socialnavi/pedtrack/internal/tracking"
)

// frameResult is the JSON written for each frame.
type frameResult struct {
	Name       string                `json:"name"`
	Frame      int                   `json:"frame"`
	Tracks     []tracking.Track      `json:"tracks"`
	Detections []detection.Detection `json:"detections"`
}

// snapshotWriter writes one JSON file per frame, named after the frame.
type snapshotWriter struct {
	dir string
}

func newSnapshotWriter(dir string) (*snapshotWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &snapshotWriter{dir: dir}, nil
}

func (w *snapshotWriter) Record(frame detection.FrameInfo, snap tracking.Snapshot, dets []detection.Detection) error {
	res := frameResult{Name: frame.Name, Frame: snap.Frame, Tracks: snap.Tracks, Detections: dets}
	if res.Tracks == nil {
		res.Tracks = []tracking.Track{}
	}
	if res.Detections == nil {
		res.Detections = []detection.Detection{}
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode frame %s: %w", frame.Name, err)
	}
	path := filepath.Join(w.dir, frame.Name+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
