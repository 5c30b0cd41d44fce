package samples

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/testkit"
)

const export = `{"uuid":"a","kind":"stepCount","start":"2024-01-01T10:00:00Z","end":"2024-01-01T10:05:00Z","value":100,"unit":"count"}
not json
{"uuid":"b","kind":"stepCount","start":"2024-01-02T10:00:00Z","end":"2024-01-02T10:05:00Z","value":50,"unit":"count"}

{"kind":"","start":"2024-01-02T10:00:00Z"}
{"uuid":"c","kind":"bodyMass","start":"2024-01-01T08:00:00Z","end":"2024-01-01T08:00:00Z","value":180,"unit":"lb"}
{"kind":"stepCount","start":"2024-01-01T23:59:00Z","end":"2024-01-02T00:01:00Z","value":7,"unit":"count"}
`

func writeExport(t *testing.T, name string, body []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, body, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestReader_SkipsMalformed(t *testing.T) {
	rd, err := NewReader(io.NopCloser(strings.NewReader(export)))
	if err != nil {
		t.Fatal(err)
	}
	defer rd.Close()

	n := 0
	for {
		if _, err := rd.Next(); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Next: %v", err)
		}
		n++
	}
	read, bad := rd.Stats()
	if n != 4 || read != 4 {
		t.Fatalf("samples = %d/%d, want 4", n, read)
	}
	if bad != 2 {
		t.Fatalf("malformed = %d, want 2", bad)
	}
}

func TestReader_StableUUID(t *testing.T) {
	line := `{"kind":"stepCount","start":"2024-01-01T10:00:00Z","end":"2024-01-01T10:01:00Z","value":1}`
	read := func() string {
		rd, err := NewReader(io.NopCloser(strings.NewReader(line)))
		if err != nil {
			t.Fatal(err)
		}
		s, err := rd.Next()
		if err != nil {
			t.Fatal(err)
		}
		return s.UUID
	}
	a, b := read(), read()
	if a == "" || a != b {
		t.Fatalf("uuids = %q, %q; want equal and non-empty", a, b)
	}
}

func TestFileSource_QueryPlain(t *testing.T) {
	src := NewFileSource(writeExport(t, "export.ndjson", []byte(export)))

	got, err := src.QuerySamples(context.Background(), "stepCount", day(1), day(2))
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != 2 || got[0].UUID != "a" || got[1].Value != 7 {
		t.Fatalf("got %+v", got)
	}
	if src.Malformed() != 2 {
		t.Fatalf("Malformed = %d, want 2", src.Malformed())
	}

	all, err := src.QuerySamples(context.Background(), "", day(1), day(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("all kinds = %d, want 4", len(all))
	}
}

func TestFileSource_QueryGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(export)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	src := NewFileSource(writeExport(t, "export.ndjson.gz", buf.Bytes()))

	got, err := src.QuerySamples(context.Background(), "bodyMass", day(1), day(2))
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != 1 || got[0].Value != 180 {
		t.Fatalf("got %+v", got)
	}
}

func TestFileSource_MissingFileIsSourceError(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.ndjson"))
	_, err := src.QuerySamples(context.Background(), "stepCount", day(1), day(2))
	if !perr.IsCode(err, perr.ErrorCodeSource) {
		t.Fatalf("err = %v, want source error", err)
	}
}

func TestFileSource_CanceledContext(t *testing.T) {
	src := NewFileSource(writeExport(t, "export.ndjson", []byte(export)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.QuerySamples(ctx, "", day(1), day(3)); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	path := writeExport(t, "export.ndjson", []byte(export))
	w := NewWatcher(path, 50*time.Millisecond)

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, func() { fired.Add(1) }) }()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(export), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	testkit.Eventually(t, 2*time.Second, func() bool { return fired.Load() >= 1 }, "watcher never fired")

	// unrelated files in the directory are ignored
	before := fired.Load()
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if fired.Load() != before {
		t.Fatalf("fired for unrelated file: %d -> %d", before, fired.Load())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch = %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
