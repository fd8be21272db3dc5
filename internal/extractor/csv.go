package extractor

import (
	"fmt"
	"os"
	"strings"

	"canopycover-extractor/internal/models"
)

// traitsWriter streams comma-joined trait rows to the output file. The file
// is opened (and truncated) once per run, the header written immediately,
// and closed exactly once no matter how the run ends. Fields are joined
// without escaping; the default citation author carries its comma verbatim.
type traitsWriter struct {
	file   *os.File
	closed bool
}

func newTraitsWriter(path string) (*traitsWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create traits CSV %s: %w", path, err)
	}

	w := &traitsWriter{file: f}
	if _, err := f.WriteString(strings.Join(models.TraitFields, ",") + "\n"); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	return w, nil
}

func (w *traitsWriter) WriteRecord(record models.TraitRecord) error {
	if w.closed {
		return fmt.Errorf("traits CSV already closed")
	}
	if _, err := w.file.WriteString(strings.Join(record.Row(), ",") + "\n"); err != nil {
		return fmt.Errorf("failed to write trait row for plot %s: %w", record.Site, err)
	}
	return nil
}

// Close is safe to call more than once; only the first call closes the
// handle.
func (w *traitsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
