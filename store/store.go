// Package store is the host capability the filesystem runs on: a flat
// namespace of named units that can be probed, opened, read sequentially,
// appended to and closed.
//
// A unit is opened immediately before use and closed on every return path;
// no Unit outlives the operation that opened it.
package store

import (
	"errors"
	"io"
)

var (
	// ErrUnavailable is returned when a unit cannot be opened or probed.
	ErrUnavailable = errors.New("unit unavailable")

	// ErrShortWrite is returned when a write did not complete. The bytes
	// that did make it stay written.
	ErrShortWrite = errors.New("short write")

	// ErrBadName is returned for a name the backend cannot address.
	ErrBadName = errors.New("bad unit name")
)

type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
	// Create opens for reading and writing, creating the unit if it is
	// absent. An existing unit is never truncated.
	Create
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "ro"
	case ReadWrite:
		return "rw"
	case Create:
		return "create"
	}
	return "mode?"
}

// Unit is an open unit with a single position that starts at 0.
type Unit interface {
	// Read may return fewer bytes than asked for; at the end of the unit it
	// returns 0, io.EOF.
	io.Reader

	// Write writes all of p at the current position or fails with
	// ErrShortWrite.
	Write(p []byte) (int, error)

	// SeekEnd moves the position to the end of the unit.
	SeekEnd() error

	Close() error
}

// Store provides access to named units.
type Store interface {
	// Exists reports whether the unit is present.
	Exists(name string) bool

	Open(name string, mode Mode) (Unit, error)

	// Close releases any resources used by the store and makes it unusable.
	Close() error
}
