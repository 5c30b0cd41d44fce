package samples

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"beesync/internal/core/aggregate"
	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/logger"
)

// ctxCheckEvery is how many lines are read between context checks
const ctxCheckEvery = 1024

// FileSource answers sample queries from an export file
// The file is reread on every query so rewrites by the exporter are picked up
type FileSource struct {
	path      string
	log       logger.Logger
	malformed atomic.Int64
	open      func(string) (io.ReadCloser, error)
}

// NewFileSource creates a source over the export at path
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path: path,
		log:  *logger.Named("samples"),
		open: func(p string) (io.ReadCloser, error) { return os.Open(p) },
	}
}

// Path returns the export location
func (f *FileSource) Path() string { return f.path }

// Malformed returns the total number of lines skipped across queries
func (f *FileSource) Malformed() int64 { return f.malformed.Load() }

// QuerySamples returns samples of kind that overlap [start, end)
// An empty kind matches every sample. Samples whose end cannot be trusted are
// returned when they start in range so the aggregator can account for them.
func (f *FileSource) QuerySamples(ctx context.Context, kind string, start, end time.Time) ([]aggregate.Sample, error) {
	rc, err := f.open(f.path)
	if err != nil {
		return nil, perr.Sourcef(err, "open sample export %s", f.path)
	}
	rd, err := NewReader(rc)
	if err != nil {
		return nil, perr.Sourcef(err, "read sample export %s", f.path)
	}
	defer func() {
		if cerr := rd.Close(); cerr != nil {
			f.log.Warn().Err(cerr).Str("path", f.path).Msg("close sample export failed")
		}
	}()

	var out []aggregate.Sample
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.Sourcef(err, "scan sample export %s", f.path)
		}
		if kind != "" && s.Kind != kind {
			continue
		}
		if inRange(s, start, end) {
			out = append(out, s)
		}
	}

	read, bad := rd.Stats()
	if bad > 0 {
		f.malformed.Add(int64(bad))
		f.log.Warn().Int("malformed", bad).Str("path", f.path).Msg("skipped malformed sample lines")
	}
	f.log.Debug().
		Str("kind", kind).
		Time("start", start).
		Time("end", end).
		Int("read", read).
		Int("matched", len(out)).
		Msg("sample query")
	return out, nil
}

func inRange(s aggregate.Sample, start, end time.Time) bool {
	if !s.Start.Before(end) {
		return false
	}
	if s.End.IsZero() || s.End.Before(s.Start) {
		return !s.Start.Before(start)
	}
	return !s.End.Before(start)
}
