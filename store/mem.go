package store

import (
	"fmt"
	"io"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore keeps units in memory.
type MemStore struct {
	l     *sync.RWMutex
	units map[string][]byte
	limit map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{
		l:     new(sync.RWMutex),
		units: make(map[string][]byte),
		limit: make(map[string]int),
	}
}

// SetLimit caps the size of the named unit; writes past max are short.
func (s *MemStore) SetLimit(name string, max int) {
	s.l.Lock()
	defer s.l.Unlock()
	s.limit[name] = max
}

// Bytes returns a copy of the unit's contents, or nil if absent.
func (s *MemStore) Bytes(name string) []byte {
	s.l.RLock()
	defer s.l.RUnlock()
	data, ok := s.units[name]
	if !ok {
		return nil
	}
	return append([]byte{}, data...)
}

// Put replaces the unit's contents, creating it if needed.
func (s *MemStore) Put(name string, data []byte) {
	s.l.Lock()
	defer s.l.Unlock()
	s.units[name] = append([]byte{}, data...)
}

func (s *MemStore) Exists(name string) bool {
	s.l.RLock()
	defer s.l.RUnlock()
	_, ok := s.units[name]
	return ok
}

func (s *MemStore) Open(name string, mode Mode) (Unit, error) {
	if name == "" {
		return nil, fmt.Errorf("%q: %w", name, ErrBadName)
	}
	s.l.Lock()
	defer s.l.Unlock()
	if _, ok := s.units[name]; !ok {
		if mode != Create {
			return nil, fmt.Errorf("open %s: %w", name, ErrUnavailable)
		}
		s.units[name] = []byte{}
	}
	return &memUnit{s: s, name: name, writable: mode != ReadOnly}, nil
}

func (s *MemStore) Close() error { return nil }

type memUnit struct {
	s        *MemStore
	name     string
	off      int
	writable bool
}

func (u *memUnit) Read(p []byte) (int, error) {
	u.s.l.RLock()
	defer u.s.l.RUnlock()
	data := u.s.units[u.name]
	if u.off >= len(data) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, data[u.off:])
	u.off += n
	return n, nil
}

func (u *memUnit) Write(p []byte) (int, error) {
	if !u.writable {
		return 0, fmt.Errorf("write %s: read-only: %w", u.name, ErrShortWrite)
	}
	u.s.l.Lock()
	defer u.s.l.Unlock()
	data := u.s.units[u.name]
	n := len(p)
	if max, ok := u.s.limit[u.name]; ok && u.off+n > max {
		n = max - u.off
		if n < 0 {
			n = 0
		}
	}
	end := u.off + n
	if end > len(data) {
		data = append(data, make([]byte, end-len(data))...)
	}
	copy(data[u.off:end], p[:n])
	u.s.units[u.name] = data
	u.off = end
	if n != len(p) {
		return n, fmt.Errorf("write %s: %d of %d bytes: %w", u.name, n, len(p), ErrShortWrite)
	}
	return n, nil
}

func (u *memUnit) SeekEnd() error {
	u.s.l.RLock()
	defer u.s.l.RUnlock()
	u.off = len(u.s.units[u.name])
	return nil
}

func (u *memUnit) Close() error { return nil }
