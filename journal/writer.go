// Package journal records every tick as zstd-compressed JSON lines so
// sessions can be replayed offline.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/world"
)

// Ext is the journal file suffix.
const Ext = ".jsonl.zst"

// Record is one journal line: the frame exactly as the game sent it and
// what we answered.
type Record struct {
	Session string          `json:"session"`
	Tick    int             `json:"tick"`
	State   json.RawMessage `json:"state"`
	Intents []world.Intent  `json:"intents"`
}

// World decodes and indexes the recorded frame.
func (r Record) World() (*model.WorldState, error) {
	if len(r.State) == 0 {
		return nil, fmt.Errorf("tick %d: no state recorded", r.Tick)
	}
	var st model.WorldState
	if err := json.Unmarshal(r.State, &st); err != nil {
		return nil, fmt.Errorf("tick %d state: %w", r.Tick, err)
	}
	st.Index()
	return &st, nil
}

// Writer appends records to <dir>/<session>.jsonl.zst. The file is created
// on first write.
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(dir, session string) *Writer {
	return &Writer{path: filepath.Join(dir, session+Ext)}
}

func (w *Writer) Path() string { return w.path }

// Write appends one record and flushes it through the compressor so a crash
// loses at most the current line.
func (w *Writer) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal tick %d: %w", r.Tick, err)
	}
	if _, err := w.w.Write(b); err != nil {
		return fmt.Errorf("write tick %d: %w", r.Tick, err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("zstd writer: %w", err)
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}
