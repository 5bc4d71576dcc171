package store

import (
	"fmt"
	"io"
	"sync"

	"github.com/tchajed/goose/machine/disk"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-fssim/common"
	"github.com/mit-pdos/go-fssim/util"
)

// Layout of a BlockStore disk:
//
//	block 0:     metadata unit
//	block 1+i:   unit for inode i
//
// Each block starts with an 8-byte header holding 0 for an absent unit and
// size+1 otherwise; the unit's bytes follow.
const (
	HDRSZ   uint64 = 8
	UNITCAP        = disk.BlockSize - HDRSZ

	METABLK  uint64 = 0
	INODEBLK uint64 = 1

	// NBLOCKS is the disk size a BlockStore needs.
	NBLOCKS = INODEBLK + common.MAXINODES
)

var _ Store = (*BlockStore)(nil)

// BlockStore packs every unit into one block of a disk.Disk, so a unit holds
// at most UNITCAP bytes.
type BlockStore struct {
	mu *sync.Mutex
	d  disk.Disk
}

func NewBlockStore(d disk.Disk) (*BlockStore, error) {
	if d.Size() < NBLOCKS {
		return nil, fmt.Errorf("disk has %d blocks, need %d: %w",
			d.Size(), NBLOCKS, ErrUnavailable)
	}
	return &BlockStore{mu: new(sync.Mutex), d: d}, nil
}

// NewMemBlockStore is a BlockStore over a fresh in-memory disk.
func NewMemBlockStore() *BlockStore {
	s, err := NewBlockStore(disk.NewMemDisk(NBLOCKS))
	if err != nil {
		panic(err)
	}
	return s
}

// NewFileBlockStore is a BlockStore over a disk image file, created if
// absent.
func NewFileBlockStore(path string) (*BlockStore, error) {
	d, err := disk.NewFileDisk(path, NBLOCKS)
	if err != nil {
		return nil, fmt.Errorf("image %s: %v: %w", path, err, ErrUnavailable)
	}
	return NewBlockStore(d)
}

func blkno(name string) (uint64, error) {
	if name == common.MetaName {
		return METABLK, nil
	}
	inum, ok := common.ParseInumName(name)
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrBadName)
	}
	return INODEBLK + uint64(inum), nil
}

func getHdr(blk disk.Block) uint64 {
	dec := marshal.NewDec(blk[:HDRSZ])
	return dec.GetInt()
}

// unitSize decodes the header of a present unit. It fails for an absent unit
// or a header that does not describe a size that fits in the block.
func unitSize(name string, blk disk.Block) (uint64, error) {
	hdr := getHdr(blk)
	if hdr == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrUnavailable)
	}
	if hdr-1 > UNITCAP {
		return 0, fmt.Errorf("%s: corrupt header: %w", name, ErrUnavailable)
	}
	return hdr - 1, nil
}

func putHdr(blk disk.Block, hdr uint64) {
	enc := marshal.NewEnc(HDRSZ)
	enc.PutInt(hdr)
	copy(blk[:HDRSZ], enc.Finish())
}

func (s *BlockStore) Exists(name string) bool {
	bn, err := blkno(name)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return getHdr(s.d.Read(bn)) != 0
}

func (s *BlockStore) Open(name string, mode Mode) (Unit, error) {
	bn, err := blkno(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	blk := s.d.Read(bn)
	hdr := getHdr(blk)
	if hdr == 0 {
		if mode != Create {
			return nil, fmt.Errorf("open %s: %w", name, ErrUnavailable)
		}
		putHdr(blk, 1)
		s.d.Write(bn, blk)
		util.DPrintf(5, "block create %s at %d\n", name, bn)
	} else if _, err := unitSize(name, blk); err != nil {
		return nil, err
	}
	return &blockUnit{s: s, name: name, bn: bn, writable: mode != ReadOnly}, nil
}

func (s *BlockStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.Barrier()
	s.d.Close()
	return nil
}

type blockUnit struct {
	s        *BlockStore
	name     string
	bn       uint64
	off      uint64
	writable bool
	dirty    bool
}

func (u *blockUnit) Read(p []byte) (int, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	blk := u.s.d.Read(u.bn)
	sz, err := unitSize(u.name, blk)
	if err != nil {
		return 0, err
	}
	if u.off >= sz {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, blk[HDRSZ+u.off:HDRSZ+sz])
	u.off += uint64(n)
	return n, nil
}

func (u *blockUnit) Write(p []byte) (int, error) {
	if !u.writable {
		return 0, fmt.Errorf("write %s: read-only: %w", u.name, ErrShortWrite)
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	blk := u.s.d.Read(u.bn)
	sz, err := unitSize(u.name, blk)
	if err != nil {
		return 0, fmt.Errorf("write %s: %v: %w", u.name, err, ErrShortWrite)
	}
	n := uint64(len(p))
	if u.off+n > UNITCAP {
		n = UNITCAP - u.off
	}
	copy(blk[HDRSZ+u.off:], p[:n])
	u.off += n
	if u.off > sz {
		putHdr(blk, u.off+1)
	}
	u.s.d.Write(u.bn, blk)
	u.dirty = true
	if n != uint64(len(p)) {
		return int(n), fmt.Errorf("write %s: %d of %d bytes: %w",
			u.name, n, len(p), ErrShortWrite)
	}
	return int(n), nil
}

func (u *blockUnit) SeekEnd() error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	sz, err := unitSize(u.name, u.s.d.Read(u.bn))
	if err != nil {
		return err
	}
	u.off = sz
	return nil
}

func (u *blockUnit) Close() error {
	if u.dirty {
		u.s.mu.Lock()
		u.s.d.Barrier()
		u.s.mu.Unlock()
	}
	return nil
}
