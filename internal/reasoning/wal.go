// Package reasoning implements the Reasoning Chain Log (§4.5): per-prediction
// append-only records of factors, confidence breakdown, and a
// personality-flavored monologue, buffered in memory and made crash-durable
// by a write-ahead log before being flushed to Postgres.
package reasoning

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// WAL record format: magic(4) crc32(4) len(4) payload(len). Single append-only
// file; Checkpoint truncates the prefix that has been durably flushed to
// Postgres rather than rotating segments, a deliberate simplification of the
// teacher's multi-segment design since a single council run's reasoning-log
// volume does not approach the segment-rotation thresholds that motivated it.
const (
	walMagic      = 0x52454153 // "REAS"
	walHeaderSize = 12
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// WAL provides crash-durable buffering for reasoning chain records.
type WAL struct {
	path   string
	mu     sync.Mutex
	f      *os.File
	closed bool
}

// NewWAL opens (or creates) the WAL file at dir/reasoning.wal. Returns nil,
// nil if dir is empty (WAL disabled, matching NewBuffer's nil-WAL mode).
func NewWAL(dir string) (*WAL, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("reasoning: create wal dir: %w", err)
	}
	path := filepath.Join(dir, "reasoning.wal")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) //nolint:gosec // path built from validated config dir
	if err != nil {
		return nil, fmt.Errorf("reasoning: open wal file: %w", err)
	}
	return &WAL{path: path, f: f}, nil
}

// Append writes a framed, checksummed record to the WAL and fsyncs it
// before returning, so a crash after Append never loses the record.
func (w *WAL) Append(record any) error {
	if w == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("reasoning: marshal wal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("reasoning: seek wal: %w", err)
	}

	var header [walHeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], walMagic)
	binary.BigEndian.PutUint32(header[4:8], crc32.Checksum(payload, crcTable))
	binary.BigEndian.PutUint32(header[8:12], uint32(len(payload))) //nolint:gosec // payload size bounded by caller

	if _, err := w.f.Write(header[:]); err != nil {
		return fmt.Errorf("reasoning: write wal header: %w", err)
	}
	if _, err := w.f.Write(payload); err != nil {
		return fmt.Errorf("reasoning: write wal payload: %w", err)
	}
	return w.f.Sync()
}

// Recover reads every record currently in the WAL, for replay into the
// in-memory buffer on startup. A truncated trailing record (partial write
// at crash time) is discarded rather than treated as an error.
func (w *WAL) Recover(out any) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("reasoning: seek wal for recovery: %w", err)
	}

	var records []json.RawMessage
	for {
		var header [walHeaderSize]byte
		if _, err := io.ReadFull(w.f, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return fmt.Errorf("reasoning: read wal header: %w", err)
		}
		magic := binary.BigEndian.Uint32(header[0:4])
		if magic != walMagic {
			break // corrupt tail, stop replay here
		}
		wantCRC := binary.BigEndian.Uint32(header[4:8])
		length := binary.BigEndian.Uint32(header[8:12])

		payload := make([]byte, length)
		if _, err := io.ReadFull(w.f, payload); err != nil {
			break // truncated final record from a crash mid-write
		}
		if crc32.Checksum(payload, crcTable) != wantCRC {
			break
		}
		records = append(records, json.RawMessage(payload))
	}

	joined := append([]byte("["), bytes.Join(records, []byte(","))...)
	joined = append(joined, ']')
	return json.Unmarshal(joined, out)
}

// Checkpoint truncates the WAL to empty once its contents are durably
// flushed to Postgres. Safe to call even when nothing new was appended
// since the last checkpoint.
func (w *WAL) Checkpoint() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.f.Truncate(0); err != nil {
		return fmt.Errorf("reasoning: truncate wal: %w", err)
	}
	_, err := w.f.Seek(0, io.SeekStart)
	return err
}

// Close releases the underlying file handle. Idempotent.
func (w *WAL) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.f.Close()
}
