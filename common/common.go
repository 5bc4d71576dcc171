package common

import (
	"strconv"
)

// Inum names one backing unit.
type Inum uint32

const (
	ROOTINUM Inum = 0
	NULLINUM Inum = ^Inum(0)

	// MAXINODES bounds the inode id space: ids are in [0, MAXINODES).
	MAXINODES uint64 = 1024

	// NRESERVED ids after the root (1..NRESERVED) are held back for
	// filesystem-internal use and never handed to a new directory.
	NRESERVED Inum = 6

	NAMELEN uint64 = 32 // name buffer, including the terminating zero

	INODESZ  uint64 = 4 + 1       // on-disk size of an inode descriptor
	DIRENTSZ uint64 = 4 + NAMELEN // on-disk size of a directory entry
)

// Type tags, stored as a single byte.
type Kind byte

const (
	KindDir  Kind = 'd'
	KindFile Kind = 'f'
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// MetaName is the unit holding the root inode descriptor.
const MetaName = "inodes_list"

// InumName is the unit name for inode inum.
func InumName(inum Inum) string {
	return strconv.FormatUint(uint64(inum), 10)
}

// ParseInumName is the inverse of InumName.
func ParseInumName(name string) (Inum, bool) {
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil || n >= MAXINODES {
		return NULLINUM, false
	}
	return Inum(n), true
}
