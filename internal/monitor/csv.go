package monitor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/udisondev/regionspawn/internal/model"
)

var csvHeader = []string{
	"timestamp",
	"memory_used_mb",
	"memory_free_mb",
	"observers",
	"active_actors",
	"active_regions",
	"tick_rate",
	"status",
}

// WriteCSV writes snapshots as CSV with a header row.
func WriteCSV(w io.Writer, snapshots []model.PerformanceSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, s := range snapshots {
		record := []string{
			s.Timestamp.Format(time.RFC3339),
			strconv.FormatInt(s.MemoryUsedMB, 10),
			strconv.FormatInt(s.MemoryFreeMB, 10),
			strconv.Itoa(s.Observers),
			strconv.Itoa(s.ActiveActors),
			strconv.Itoa(s.ActiveRegions),
			strconv.FormatFloat(s.TickRate, 'f', 2, 64),
			s.Status().String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// ExportCSV writes the whole history as CSV.
func (s *Sampler) ExportCSV(w io.Writer) error {
	return WriteCSV(w, s.history.All())
}

// ExportCSVFile writes the whole history to path, creating parent directories.
func (s *Sampler) ExportCSVFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export dir %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file %s: %w", path, err)
	}
	if err := s.ExportCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file %s: %w", path, err)
	}
	return nil
}
