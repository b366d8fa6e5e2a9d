package downloader

import (
	"fmt"
	"io"
	"time"
)

// progressWriter counts bytes flowing to disk and prints a running
// percentage with MB/s throughput when the total size is known. With an
// absent or zero content-length it stays silent.
type progressWriter struct {
	name     string
	total    int64
	written  int64
	start    time.Time
	last     time.Time
	interval time.Duration
	out      io.Writer
}

func newProgressWriter(name string, total int64, out io.Writer) *progressWriter {
	return &progressWriter{
		name:     name,
		total:    total,
		start:    time.Now(),
		interval: 500 * time.Millisecond,
		out:      out,
	}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.written += int64(len(p))
	if pw.total > 0 && time.Since(pw.last) >= pw.interval {
		pw.print()
		pw.last = time.Now()
	}
	return len(p), nil
}

func (pw *progressWriter) print() {
	percent := float64(pw.written) / float64(pw.total) * 100
	speed := 0.0
	if elapsed := time.Since(pw.start).Seconds(); elapsed > 0 {
		speed = float64(pw.written) / (1024 * 1024 * elapsed)
	}
	fmt.Fprintf(pw.out, "\r%s: %.1f%% (%.1f MB/s)", pw.name, percent, speed)
}

// finish prints the closing progress line once the stream is drained.
func (pw *progressWriter) finish() {
	if pw.total > 0 {
		pw.print()
		fmt.Fprintln(pw.out)
	}
}
