package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// maxLine bounds a single record.
const maxLine = 32 * 1024 * 1024

// Reader streams records back from a journal file.
type Reader struct {
	f    *os.File
	dec  *zstd.Decoder
	sc   *bufio.Scanner
	line int
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &Reader{f: f, dec: dec, sc: sc}, nil
}

// Next returns the next record, or io.EOF at the end of the journal.
func (r *Reader) Next() (Record, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return Record{}, fmt.Errorf("scan line %d: %w", r.line+1, err)
		}
		return Record{}, io.EOF
	}
	r.line++
	var rec Record
	if err := json.Unmarshal(r.sc.Bytes(), &rec); err != nil {
		return Record{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	return rec, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// ReadAll loads every record in the file.
func ReadAll(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
