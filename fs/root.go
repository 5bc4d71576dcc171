package fs

import (
	"errors"
	"fmt"
	"io"

	"github.com/mit-pdos/go-fssim/codec"
	"github.com/mit-pdos/go-fssim/common"
	"github.com/mit-pdos/go-fssim/store"
	"github.com/mit-pdos/go-fssim/util"
)

var ErrIntegrity = errors.New("root integrity check failed")

// IntegrityError says why the root descriptor was rejected. It matches
// ErrIntegrity and unwraps to the cause.
type IntegrityError struct {
	Cause error
}

func (e *IntegrityError) Error() string {
	return ErrIntegrity.Error() + ": " + e.Cause.Error()
}

func (e *IntegrityError) Unwrap() error { return e.Cause }

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

var (
	errNotDirRoot = errors.New("root inode is not a directory")
	errRootInum   = errors.New("root inode number is not 0")
)

// VerifyRoot checks that the metadata unit starts with the descriptor of a
// directory numbered 0.
func VerifyRoot(s store.Store) error {
	u, err := s.Open(common.MetaName, store.ReadOnly)
	if err != nil {
		return &IntegrityError{Cause: err}
	}
	defer u.Close()

	buf := make([]byte, common.INODESZ)
	n, err := io.ReadFull(u, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &IntegrityError{Cause: fmt.Errorf("%d of %d bytes: %w", n, common.INODESZ, codec.ErrShortRead)}
	}
	if err != nil {
		return &IntegrityError{Cause: err}
	}
	ino, _ := codec.DecodeInode(buf)
	if ino.Kind != common.KindDir {
		return &IntegrityError{Cause: fmt.Errorf("kind %v: %w", ino.Kind, errNotDirRoot)}
	}
	if ino.Inum != common.ROOTINUM {
		return &IntegrityError{Cause: fmt.Errorf("inum %d: %w", ino.Inum, errRootInum)}
	}
	util.DPrintf(1, "root ok\n")
	return nil
}

// Mkfs writes the root descriptor and creates the root directory unit. A
// store whose root already verifies is left alone; one with a damaged
// descriptor is refused.
func Mkfs(s store.Store) error {
	if s.Exists(common.MetaName) {
		return VerifyRoot(s)
	}
	u, err := s.Open(common.MetaName, store.Create)
	if err != nil {
		return fmt.Errorf("mkfs: %w", err)
	}
	_, err = u.Write(codec.EncodeInode(codec.Inode{Inum: common.ROOTINUM, Kind: common.KindDir}))
	u.Close()
	if err != nil {
		return fmt.Errorf("mkfs: root descriptor: %w", err)
	}
	u, err = s.Open(common.InumName(common.ROOTINUM), store.Create)
	if err != nil {
		return fmt.Errorf("mkfs: root directory: %w", err)
	}
	u.Close()
	util.DPrintf(1, "mkfs done\n")
	return nil
}
