// Package codec encodes the two fixed-size on-disk records: the inode
// descriptor kept in the metadata unit, and the directory entry that
// directory units are made of.
//
// Both records are packed, little-endian, with no padding:
//
//	inode descriptor: inum uint32 | kind byte             (5 bytes)
//	directory entry:  inum uint32 | name [NAMELEN]byte    (36 bytes)
//
// A name holds at most NAMELEN-1 significant bytes and is always
// zero-terminated; longer names are cut short.
package codec

import (
	"bytes"
	"errors"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-fssim/common"
)

var (
	// ErrTruncated reports that a name did not fit and was cut short. The
	// encoded record is still valid and callers are expected to carry on.
	ErrTruncated = errors.New("name truncated")

	// ErrShortRead reports a record that was required but only partially
	// present.
	ErrShortRead = errors.New("short read")
)

type Inode struct {
	Inum common.Inum
	Kind common.Kind
}

type DirEnt struct {
	Inum common.Inum
	Name string
}

// CopyName copies src into dst, stopping at len(dst)-1 bytes or at the
// first zero byte of src, and zero-fills the rest of dst. It returns
// ErrTruncated if src did not fit.
func CopyName(dst []byte, src string) error {
	if len(dst) == 0 {
		return ErrTruncated
	}
	i := 0
	for ; i < len(dst)-1 && i < len(src) && src[i] != 0; i++ {
		dst[i] = src[i]
	}
	for j := i; j < len(dst); j++ {
		dst[j] = 0
	}
	if i < len(src) && src[i] != 0 {
		return ErrTruncated
	}
	return nil
}

// TruncName returns name as it would read back after being stored.
func TruncName(name string) string {
	var b [common.NAMELEN]byte
	CopyName(b[:], name)
	return cstring(b[:])
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func EncodeInode(ino Inode) []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(uint32(ino.Inum))
	b := enc.Finish()
	b[4] = byte(ino.Kind)
	return b
}

// DecodeInode returns false if b is shorter than one record.
func DecodeInode(b []byte) (Inode, bool) {
	if uint64(len(b)) < common.INODESZ {
		return Inode{}, false
	}
	dec := marshal.NewDec(b)
	inum := dec.GetInt32()
	return Inode{Inum: common.Inum(inum), Kind: common.Kind(b[4])}, true
}

// EncodeDirEnt always returns a full record. The error is ErrTruncated
// when de.Name was cut short, nil otherwise.
func EncodeDirEnt(de DirEnt) ([]byte, error) {
	enc := marshal.NewEnc(common.DIRENTSZ)
	enc.PutInt32(uint32(de.Inum))
	b := enc.Finish()
	err := CopyName(b[4:common.DIRENTSZ], de.Name)
	return b, err
}

// DecodeDirEnt returns false if b is shorter than one record, which readers
// treat as the end of the directory.
func DecodeDirEnt(b []byte) (DirEnt, bool) {
	if uint64(len(b)) < common.DIRENTSZ {
		return DirEnt{}, false
	}
	dec := marshal.NewDec(b)
	inum := dec.GetInt32()
	return DirEnt{
		Inum: common.Inum(inum),
		Name: cstring(b[4:common.DIRENTSZ]),
	}, true
}
