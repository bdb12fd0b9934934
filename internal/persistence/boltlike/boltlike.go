// Package boltlike is a minimal embedded, append-only key-value store
// for strategic advisories, keyed by an 8-byte big-endian timestamp
// per spec.md §6. No example repo in the corpus ships an actual
// embedded KV engine dependency (bbolt/badger), so this is the
// primary AdvisoryStore implementation: a length-prefixed append log
// plus an in-memory offset index rebuilt on open, the same shape an
// embedded KV tree presents to callers without pulling in one.
package boltlike

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/persistence"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

// record on disk: 8-byte big-endian timestamp key, 4-byte
// big-endian payload length, JSON payload.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File

	// index maps timestamp to byte offset of its latest record. Query
	// does not consult it: Query reads every record listed in offsets
	// and filters by timestamp.
	index   map[int64]int64
	offsets []int64
}

// Open opens (creating if necessary) the append log at path and
// rebuilds the in-memory index by scanning it once.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", persistence.ErrStorage, path, err)
	}

	s := &Store{path: path, file: f, index: make(map[int64]int64)}
	if err := s.rebuildIndex(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) rebuildIndex() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("boltlike: seek: %w", err)
	}
	r := bufio.NewReader(s.file)

	var offset int64
	for {
		header := make([]byte, 12)
		n, err := io.ReadFull(r, header)
		if err == io.EOF || (err == io.ErrUnexpectedEOF && n == 0) {
			break
		}
		if err != nil {
			return fmt.Errorf("boltlike: rebuild index: %w", err)
		}

		ts := int64(binary.BigEndian.Uint64(header[0:8]))
		length := binary.BigEndian.Uint32(header[8:12])

		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return fmt.Errorf("boltlike: rebuild index: skip payload: %w", err)
		}

		s.index[ts] = offset
		s.offsets = append(s.offsets, offset)
		offset += 12 + int64(length)
	}
	sort.Slice(s.offsets, func(i, j int) bool { return s.offsets[i] < s.offsets[j] })
	return nil
}

// Store appends adv to the log. This is an append-only log, not a
// compacting one: a second Store for a timestamp already present adds
// a new record rather than overwriting the old one, and both remain
// queryable — Query scans every offset on record, so two advisories
// sharing a timestamp are returned as two entries rather than one
// clobbering the other.
func (s *Store) Store(_ context.Context, adv types.StrategicAdvisory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("%w: marshal advisory: %v", persistence.ErrStorage, err)
	}

	end, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: seek end: %v", persistence.ErrStorage, err)
	}

	header := make([]byte, 12)
	binary.BigEndian.PutUint64(header[0:8], uint64(adv.Timestamp))
	binary.BigEndian.PutUint32(header[8:12], uint32(len(payload)))

	if _, err := s.file.Write(header); err != nil {
		return fmt.Errorf("%w: write header: %v", persistence.ErrStorage, err)
	}
	if _, err := s.file.Write(payload); err != nil {
		return fmt.Errorf("%w: write payload: %v", persistence.ErrStorage, err)
	}

	s.index[adv.Timestamp] = end
	s.offsets = append(s.offsets, end)
	return nil
}

// Query returns advisories with Timestamp >= sinceUnix, oldest first,
// capped at limit (0 means no cap).
func (s *Store) Query(_ context.Context, sinceUnix int64, limit int) ([]types.StrategicAdvisory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.StrategicAdvisory
	for _, offset := range s.offsets {
		if limit > 0 && len(out) >= limit {
			break
		}
		adv, err := s.readAt(offset)
		if err != nil {
			return nil, err
		}
		if adv.Timestamp >= sinceUnix {
			out = append(out, adv)
		}
	}
	return out, nil
}

func (s *Store) readAt(offset int64) (types.StrategicAdvisory, error) {
	header := make([]byte, 12)
	if _, err := s.file.ReadAt(header, offset); err != nil {
		return types.StrategicAdvisory{}, fmt.Errorf("boltlike: read header at %d: %w", offset, err)
	}
	length := binary.BigEndian.Uint32(header[8:12])

	payload := make([]byte, length)
	if _, err := s.file.ReadAt(payload, offset+12); err != nil {
		return types.StrategicAdvisory{}, fmt.Errorf("boltlike: read payload at %d: %w", offset, err)
	}

	var adv types.StrategicAdvisory
	if err := json.Unmarshal(payload, &adv); err != nil {
		return types.StrategicAdvisory{}, fmt.Errorf("boltlike: decode payload at %d: %w", offset, err)
	}
	return adv, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
