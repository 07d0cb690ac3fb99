package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Timing is one pipeline stage's wall-clock duration.
type Timing struct {
	Stage    string
	Duration time.Duration
}

// WriteTimingsCSV writes stage timings as CSV with a header row. Durations
// are reported in seconds.
func WriteTimingsCSV(timings []Timing, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"stage", "seconds"}); err != nil {
		return fmt.Errorf("write timings: %w", err)
	}
	for _, tm := range timings {
		secs := strconv.FormatFloat(tm.Duration.Seconds(), 'f', 3, 64)
		if err := cw.Write([]string{tm.Stage, secs}); err != nil {
			return fmt.Errorf("write timings: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportTimingsCSV writes stage timings to a CSV file at path.
// This is a convenience wrapper around [WriteTimingsCSV] for file-based output.
func ExportTimingsCSV(timings []Timing, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteTimingsCSV(timings, f)
}
