package wt

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader yields CallRecords from a raw trace stream, one per valid
// line, in input order. Order is the only structural signal the tree
// builder has, so a Reader is strictly single-pass; restart by
// re-opening the source.
type Reader struct {
	br *bufio.Reader
	// open mirrors the tree builder's stack of open calls: one entry
	// per depth, deepest last. It is what makes the entry/return
	// classification agree with the tree the builder will produce.
	open  []openCall
	noise int
}

type openCall struct {
	depth int
	name  string
}

func NewReader(r io.Reader) *Reader {
	// wt lines are short but symbol names from template-heavy code are
	// not. A line that overflows even this buffer cannot hold a valid
	// record and is treated as noise.
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next CallRecord, skipping noise lines. It returns
// io.EOF once the source is exhausted.
//
// A record is classified Return when the call most recently opened at
// the same depth, and still open, has the same qualified name: that is
// the closing measurement of a call whose children have already been
// traced. Every other record is an Entry. A record at depth d closes
// all calls deeper than d, and an Entry at depth d also closes the
// previous sibling at d.
func (r *Reader) Next() (CallRecord, error) {
	for {
		line, ok, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				return CallRecord{}, io.EOF
			}
			return CallRecord{}, err
		}
		if !ok {
			r.noise++
			continue
		}
		rec, ok := ParseLine(line)
		if !ok {
			r.noise++
			continue
		}
		for len(r.open) > 0 && r.open[len(r.open)-1].depth > rec.Depth {
			r.open = r.open[:len(r.open)-1]
		}
		if len(r.open) > 0 && r.open[len(r.open)-1].depth == rec.Depth {
			if r.open[len(r.open)-1].name == rec.QualifiedName {
				rec.Kind = Return
				return rec, nil
			}
			r.open = r.open[:len(r.open)-1]
		}
		r.open = append(r.open, openCall{depth: rec.Depth, name: rec.QualifiedName})
		return rec, nil
	}
}

// readLine returns the next line with ok=true, or ok=false for a line
// too long to fit the buffer after draining its remainder.
func (r *Reader) readLine() (string, bool, error) {
	line, isPrefix, err := r.br.ReadLine()
	if err != nil {
		return "", false, err
	}
	if !isPrefix {
		return string(line), true, nil
	}
	for isPrefix && err == nil {
		_, isPrefix, err = r.br.ReadLine()
	}
	if err != nil && err != io.EOF {
		return "", false, err
	}
	return "", false, nil
}

// ReadAll drains the reader. An empty slice is a valid outcome: a trace
// made entirely of noise still builds an empty tree.
func (r *Reader) ReadAll() ([]CallRecord, error) {
	var records []CallRecord
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// NoiseLines reports how many lines were discarded so far.
func (r *Reader) NoiseLines() int {
	return r.noise
}

// Open opens a trace file for reading, transparently decompressing
// gzip-compressed traces by extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open trace %q: %w", path, err)
	}
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("can't open trace %q: %w", path, err)
		}
		return &gzipReadCloser{zr: zr, f: f}, nil
	}
	return f, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	if err := g.zr.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}
