// Package fs is a mounted filesystem: the inode allocator, the directory
// store and the current directory, owned by one Fs value.
//
// All operations on an Fs are serialized, so minting an inode number and
// appending the entry that uses it happen as one step.
package fs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mit-pdos/go-fssim/alloc"
	"github.com/mit-pdos/go-fssim/codec"
	"github.com/mit-pdos/go-fssim/common"
	"github.com/mit-pdos/go-fssim/dir"
	"github.com/mit-pdos/go-fssim/store"
	"github.com/mit-pdos/go-fssim/util"
)

type Fs struct {
	mu   *sync.Mutex // protects cwd and orders allocation with appends
	s    store.Store
	a    *alloc.Alloc
	dirs *dir.Dirs
	cwd  common.Inum
}

// Mount verifies the root, rebuilds the allocation table from the store and
// holds back the reserved range. The current directory starts at the root.
func Mount(s store.Store) (*Fs, error) {
	if err := VerifyRoot(s); err != nil {
		return nil, err
	}
	a := alloc.MkMaxAlloc(common.MAXINODES)
	a.Init(s)
	for i := common.Inum(1); i <= common.NRESERVED; i++ {
		a.MarkUsed(i)
	}
	fsys := &Fs{
		mu:   new(sync.Mutex),
		s:    s,
		a:    a,
		dirs: dir.MkDirs(s, a),
		cwd:  common.ROOTINUM,
	}
	util.DPrintf(1, "mounted, %d inodes free\n", a.NumFree())
	return fsys, nil
}

// Cwd returns the current directory's inode number.
func (fsys *Fs) Cwd() common.Inum {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.cwd
}

func (fsys *Fs) NumFree() uint64 {
	return fsys.a.NumFree()
}

// Ls returns the entries of the current directory in storage order.
func (fsys *Fs) Ls() ([]codec.DirEnt, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.dirs.List(fsys.cwd)
}

// Cd makes the directory called name the current directory. On any error
// the current directory is unchanged.
func (fsys *Fs) Cd(name string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	de, err := fsys.dirs.Find(fsys.cwd, name)
	if err != nil {
		return err
	}
	isdir, err := fsys.dirs.IsDir(de.Inum)
	if err != nil {
		return fmt.Errorf("cd %q: %w", name, err)
	}
	if !isdir {
		return fmt.Errorf("cd %q: inode %d: %w", name, de.Inum, dir.ErrNotDir)
	}
	util.DPrintf(1, "cd %q: %d -> %d\n", name, fsys.cwd, de.Inum)
	fsys.cwd = de.Inum
	return nil
}

// Mkdir creates a directory in the current directory; see dir.Dirs.Mkdir.
func (fsys *Fs) Mkdir(name string) (common.Inum, bool, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.dirs.Mkdir(fsys.cwd, name)
}

// Touch creates a file in the current directory; see dir.Dirs.Touch.
func (fsys *Fs) Touch(name string) (common.Inum, bool, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	return fsys.dirs.Touch(fsys.cwd, name)
}

// Problem is an inconsistency found by Check.
type Problem struct {
	Dir  common.Inum // directory holding the entry
	Name string
	Inum common.Inum
	What string
}

func (p Problem) String() string {
	return fmt.Sprintf("directory %d: %q -> %d: %s", p.Dir, p.Name, p.Inum, p.What)
}

type walkItem struct {
	inum   common.Inum
	parent common.Inum
}

// Check walks the tree from the root and reports entries without a backing
// unit and directories whose ".." entry is missing or names the wrong
// parent. A unit with no records reads as an empty file, so a directory
// whose first record never got written is not reported.
func (fsys *Fs) Check() ([]Problem, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	var problems []Problem
	visited := map[common.Inum]bool{common.ROOTINUM: true}
	queue := []walkItem{{common.ROOTINUM, common.ROOTINUM}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		ents, err := fsys.dirs.List(it.inum)
		if err != nil {
			return problems, err
		}
		sawDotDot := false
		for i, de := range ents {
			switch {
			case de.Name == dir.Dot && i == 0:
				continue
			case de.Name == dir.DotDot && i == 1:
				sawDotDot = true
				if de.Inum != it.parent {
					problems = append(problems, Problem{it.inum, de.Name, de.Inum,
						fmt.Sprintf("parent is %d", it.parent)})
				}
				continue
			}
			if !fsys.s.Exists(common.InumName(de.Inum)) {
				problems = append(problems, Problem{it.inum, de.Name, de.Inum, "missing unit"})
				continue
			}
			isdir, err := fsys.dirs.IsDir(de.Inum)
			if err != nil {
				return problems, err
			}
			if isdir && !visited[de.Inum] {
				visited[de.Inum] = true
				queue = append(queue, walkItem{de.Inum, it.inum})
			}
		}
		if it.inum != common.ROOTINUM && !sawDotDot {
			problems = append(problems, Problem{it.inum, dir.DotDot, common.NULLINUM, "missing"})
		}
	}
	util.DPrintf(1, "check: %d directories, %d problems\n", len(visited), len(problems))
	return problems, nil
}

// IsNotFound reports whether err is a failed name lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, dir.ErrNotFound)
}
