// Package dir stores directories. A directory is the unit named by its
// inode number, holding a sequence of fixed-size directory entries in
// insertion order. Entries are only ever appended.
package dir

import (
	"errors"
	"fmt"
	"io"

	"github.com/mit-pdos/go-fssim/alloc"
	"github.com/mit-pdos/go-fssim/codec"
	"github.com/mit-pdos/go-fssim/common"
	"github.com/mit-pdos/go-fssim/lockmap"
	"github.com/mit-pdos/go-fssim/store"
	"github.com/mit-pdos/go-fssim/util"
)

var (
	ErrNotFound = errors.New("not found")
	ErrReserved = errors.New("no suitable inodes available")
	ErrNotDir   = errors.New("not a directory")
)

const (
	Dot    = "."
	DotDot = ".."
)

// Dirs operates on the directories of one store. Operations on the same
// directory are serialized; new inode numbers come from the shared
// allocator. Callers such as fs.Fs may serialize more broadly on top; the
// per-directory locks keep Dirs safe when used on its own.
type Dirs struct {
	s     store.Store
	a     *alloc.Alloc
	locks *lockmap.LockMap
}

func MkDirs(s store.Store, a *alloc.Alloc) *Dirs {
	return &Dirs{
		s:     s,
		a:     a,
		locks: lockmap.MkLockMap(),
	}
}

// scan calls f on each entry of dir in order until f returns false or the
// entries run out. A trailing partial record ends the directory.
func (d *Dirs) scan(dir common.Inum, f func(de codec.DirEnt) bool) error {
	u, err := d.s.Open(common.InumName(dir), store.ReadOnly)
	if err != nil {
		return fmt.Errorf("directory %d: %w", dir, err)
	}
	defer u.Close()
	buf := make([]byte, common.DIRENTSZ)
	for {
		_, err := io.ReadFull(u, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("directory %d: %w", dir, err)
		}
		de, _ := codec.DecodeDirEnt(buf)
		if !f(de) {
			return nil
		}
	}
}

// Scan visits the entries of dir in storage order. Each call reads the
// directory afresh.
func (d *Dirs) Scan(dir common.Inum, f func(de codec.DirEnt) bool) error {
	d.locks.Acquire(dir)
	defer d.locks.Release(dir)
	return d.scan(dir, f)
}

// List returns the entries of dir in storage order.
func (d *Dirs) List(dir common.Inum) ([]codec.DirEnt, error) {
	var ents []codec.DirEnt
	err := d.Scan(dir, func(de codec.DirEnt) bool {
		ents = append(ents, de)
		return true
	})
	if err != nil {
		return nil, err
	}
	util.Dump(10, fmt.Sprintf("list %d", dir), ents)
	return ents, nil
}

func (d *Dirs) find(dir common.Inum, name string) (codec.DirEnt, error) {
	key := codec.TruncName(name)
	var found codec.DirEnt
	ok := false
	err := d.scan(dir, func(de codec.DirEnt) bool {
		if de.Name == key {
			found = de
			ok = true
			return false
		}
		return true
	})
	if err != nil {
		return codec.DirEnt{}, err
	}
	if !ok {
		return codec.DirEnt{}, fmt.Errorf("%q in directory %d: %w", name, dir, ErrNotFound)
	}
	return found, nil
}

// Find returns the first entry of dir named name, compared after the name
// is cut to the stored length.
func (d *Dirs) Find(dir common.Inum, name string) (codec.DirEnt, error) {
	d.locks.Acquire(dir)
	defer d.locks.Release(dir)
	return d.find(dir, name)
}

func writeEnts(u store.Unit, ents ...codec.DirEnt) error {
	for _, de := range ents {
		b, err := codec.EncodeDirEnt(de)
		if err == codec.ErrTruncated {
			util.DPrintf(1, "name %q truncated to %q\n", de.Name, codec.TruncName(de.Name))
		}
		if _, err := u.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dirs) appendEnt(dir common.Inum, de codec.DirEnt) error {
	u, err := d.s.Open(common.InumName(dir), store.ReadWrite)
	if err != nil {
		return fmt.Errorf("directory %d: %w", dir, err)
	}
	defer u.Close()
	if err := u.SeekEnd(); err != nil {
		return fmt.Errorf("directory %d: %w", dir, err)
	}
	if err := writeEnts(u, de); err != nil {
		return fmt.Errorf("directory %d: append %q: %w", dir, de.Name, err)
	}
	util.DPrintf(5, "append %d: %d %q\n", dir, de.Inum, de.Name)
	return nil
}

// Append adds de at the end of dir. A failed write is not retried.
func (d *Dirs) Append(dir common.Inum, de codec.DirEnt) error {
	d.locks.Acquire(dir)
	defer d.locks.Release(dir)
	return d.appendEnt(dir, de)
}

// Mkdir creates a directory called name in parent and returns its inode
// number. If parent already has an entry called name nothing is created and
// the existing entry's number is returned with created false.
//
// The new directory starts with "." and ".." entries. If writing those
// fails the entry in parent stays, pointing at an incomplete directory.
func (d *Dirs) Mkdir(parent common.Inum, name string) (common.Inum, bool, error) {
	d.locks.Acquire(parent)
	defer d.locks.Release(parent)

	de, err := d.find(parent, name)
	if err == nil {
		util.DPrintf(1, "mkdir %q: exists as %d\n", name, de.Inum)
		return de.Inum, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return common.NULLINUM, false, err
	}

	inum, err := d.a.AllocNum()
	if err != nil {
		return common.NULLINUM, false, fmt.Errorf("mkdir %q: %w", name, err)
	}
	if inum <= common.NRESERVED {
		return common.NULLINUM, false, fmt.Errorf("mkdir %q: got %d: %w", name, inum, ErrReserved)
	}

	if err := d.appendEnt(parent, codec.DirEnt{Inum: inum, Name: name}); err != nil {
		return common.NULLINUM, false, err
	}

	u, err := d.s.Open(common.InumName(inum), store.Create)
	if err != nil {
		return inum, true, fmt.Errorf("mkdir %q: create %d: %w", name, inum, err)
	}
	defer u.Close()
	err = writeEnts(u,
		codec.DirEnt{Inum: inum, Name: Dot},
		codec.DirEnt{Inum: parent, Name: DotDot})
	if err != nil {
		return inum, true, fmt.Errorf("mkdir %q: init %d: %w", name, inum, err)
	}
	util.DPrintf(1, "mkdir %q: %d in %d\n", name, inum, parent)
	return inum, true, nil
}

// Touch makes sure parent has an entry called name with a backing unit and
// returns its inode number; created reports whether the entry is new. An
// existing unit is left untouched.
func (d *Dirs) Touch(parent common.Inum, name string) (common.Inum, bool, error) {
	d.locks.Acquire(parent)
	var inum common.Inum
	created := false
	de, err := d.find(parent, name)
	if err == nil {
		inum = de.Inum
	} else if errors.Is(err, ErrNotFound) {
		inum, err = d.a.AllocNum()
		if err != nil {
			d.locks.Release(parent)
			return common.NULLINUM, false, fmt.Errorf("touch %q: %w", name, err)
		}
		if err := d.appendEnt(parent, codec.DirEnt{Inum: inum, Name: name}); err != nil {
			d.locks.Release(parent)
			return common.NULLINUM, false, err
		}
		created = true
	} else {
		d.locks.Release(parent)
		return common.NULLINUM, false, err
	}
	d.locks.Release(parent)

	u, err := d.s.Open(common.InumName(inum), store.Create)
	if err != nil {
		return inum, created, fmt.Errorf("touch %q: open %d: %w", name, inum, err)
	}
	u.Close()
	util.DPrintf(1, "touch %q: %d in %d created %v\n", name, inum, parent, created)
	return inum, created, nil
}

// IsDir reports whether inum is a directory: the root always is, any other
// inode is if its first entry is "." naming itself.
func (d *Dirs) IsDir(inum common.Inum) (bool, error) {
	if inum == common.ROOTINUM {
		return true, nil
	}
	d.locks.Acquire(inum)
	defer d.locks.Release(inum)
	isdir := false
	err := d.scan(inum, func(de codec.DirEnt) bool {
		isdir = de.Name == Dot && de.Inum == inum
		return false
	})
	if err != nil {
		return false, err
	}
	return isdir, nil
}
