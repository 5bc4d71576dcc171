package alloc

import (
	"errors"
	"sync"

	"github.com/mit-pdos/go-fssim/common"
	"github.com/mit-pdos/go-fssim/util"
)

var ErrExhausted = errors.New("no free inode numbers")

// Prober reports whether the unit with the given name exists.
type Prober interface {
	Exists(name string) bool
}

// Alloc tracks which inode numbers are in use. Number 0 is the root and is
// never handed out. Numbers are never freed.
type Alloc struct {
	lock *sync.Mutex // protects used
	used []bool
}

func MkMaxAlloc(max uint64) *Alloc {
	if max == 0 || max > uint64(common.NULLINUM) {
		panic("MkMaxAlloc")
	}
	a := &Alloc{
		lock: new(sync.Mutex),
		used: make([]bool, max),
	}
	return a
}

// Init rebuilds the table from the store: a number is used iff its unit
// exists.
func (a *Alloc) Init(p Prober) {
	a.lock.Lock()
	defer a.lock.Unlock()
	for i := range a.used {
		a.used[i] = p.Exists(common.InumName(common.Inum(i)))
	}
	util.DPrintf(1, "alloc init: %d of %d free\n", a.numFree(), len(a.used)-1)
}

// AllocNum marks and returns the lowest unused number above 0.
func (a *Alloc) AllocNum() (common.Inum, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	for i := 1; i < len(a.used); i++ {
		if !a.used[i] {
			a.used[i] = true
			util.DPrintf(1, "alloc %d\n", i)
			return common.Inum(i), nil
		}
	}
	return common.NULLINUM, ErrExhausted
}

func (a *Alloc) check(n common.Inum) {
	if uint64(n) >= uint64(len(a.used)) {
		panic("alloc: inum out of range")
	}
}

func (a *Alloc) MarkUsed(n common.Inum) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.check(n)
	a.used[n] = true
}

func (a *Alloc) IsUsed(n common.Inum) bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.check(n)
	return a.used[n]
}

func (a *Alloc) numFree() uint64 {
	var n uint64
	for i := 1; i < len(a.used); i++ {
		if !a.used[i] {
			n++
		}
	}
	return n
}

// NumFree reports how many numbers AllocNum can still return.
func (a *Alloc) NumFree() uint64 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.numFree()
}

func (a *Alloc) Max() uint64 {
	return uint64(len(a.used))
}
