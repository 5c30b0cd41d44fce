package samples

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"

	"beesync/internal/core/aggregate"

	"github.com/google/uuid"
)

const maxScanTokenSize = 4 * 1024 * 1024

// sampleNamespace seeds uuids for samples exported without one, so request ids stay stable
var sampleNamespace = uuid.MustParse("6f1c7d2e-3b52-4c1a-9e57-2a5b0d9c4e11")

// Reader streams samples from an export, gzip or plain
type Reader struct {
	r         io.ReadCloser
	gz        *gzip.Reader
	sc        *bufio.Scanner
	err       error
	samples   int
	malformed int
}

// NewReader sniffs the gzip magic and wraps r accordingly
func NewReader(r io.ReadCloser) (*Reader, error) {
	br := bufio.NewReader(r)
	rd := &Reader{r: r}

	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				return nil, cerr
			}
			return nil, err
		}
		rd.gz = gz
		src = gz
	}
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), maxScanTokenSize)
	rd.sc = sc
	return rd, nil
}

// Next reads the next sample; returns io.EOF when done
// Lines that are not JSON objects with a kind and a start are skipped and counted
func (rd *Reader) Next() (aggregate.Sample, error) {
	if rd.err != nil {
		return aggregate.Sample{}, rd.err
	}
	for {
		if !rd.sc.Scan() {
			if err := rd.sc.Err(); err != nil {
				rd.err = err
				return aggregate.Sample{}, err
			}
			rd.err = io.EOF
			return aggregate.Sample{}, io.EOF
		}
		line := rd.sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var s aggregate.Sample
		if err := json.Unmarshal(line, &s); err != nil || s.Kind == "" || s.Start.IsZero() {
			rd.malformed++
			continue
		}
		if s.UUID == "" {
			s.UUID = uuid.NewSHA1(sampleNamespace, line).String()
		}
		rd.samples++
		return s, nil
	}
}

// Close closes the underlying reader
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			first = err
		}
	}
	if rd.r != nil {
		if err := rd.r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stats returns the number of samples decoded and lines skipped so far
func (rd *Reader) Stats() (samples, malformed int) {
	return rd.samples, rd.malformed
}
