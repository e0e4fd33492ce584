package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans out writes to all given writers.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		writers: writers,
	}
}

func (w *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, writer := range w.writers {
		written, werr := writer.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		n = written
	}
	return n, err
}
