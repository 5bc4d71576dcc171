// Package lockmap holds one lock per inode number.
//
// Locks are created on first use and dropped once nobody holds or waits for
// them, so the map only ever contains inodes that are being worked on. The
// map is split into shards; inode i belongs to shard i % NSHARD.
package lockmap

import (
	"sync"

	"github.com/mit-pdos/go-fssim/common"
)

type lockState struct {
	held    bool
	cond    *sync.Cond
	waiters uint64
}

type lockShard struct {
	mu    *sync.Mutex
	state map[common.Inum]*lockState
}

func mkLockShard() *lockShard {
	return &lockShard{
		mu:    new(sync.Mutex),
		state: make(map[common.Inum]*lockState),
	}
}

func (sh *lockShard) acquire(inum common.Inum) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	for {
		state, ok := sh.state[inum]
		if !ok {
			state = &lockState{cond: sync.NewCond(sh.mu)}
			sh.state[inum] = state
		}
		if !state.held {
			state.held = true
			return
		}
		state.waiters++
		state.cond.Wait()
		state.waiters--
	}
}

func (sh *lockShard) release(inum common.Inum) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	state, ok := sh.state[inum]
	if !ok || !state.held {
		panic("lockmap: release of unheld lock")
	}
	state.held = false
	if state.waiters > 0 {
		state.cond.Signal()
	} else {
		delete(sh.state, inum)
	}
}

const NSHARD uint64 = 43

type LockMap struct {
	shards []*lockShard
}

func MkLockMap() *LockMap {
	shards := make([]*lockShard, NSHARD)
	for i := range shards {
		shards[i] = mkLockShard()
	}
	return &LockMap{shards: shards}
}

func (lm *LockMap) shard(inum common.Inum) *lockShard {
	return lm.shards[uint64(inum)%NSHARD]
}

func (lm *LockMap) Acquire(inum common.Inum) {
	lm.shard(inum).acquire(inum)
}

func (lm *LockMap) Release(inum common.Inum) {
	lm.shard(inum).release(inum)
}

// held reports whether inum is currently locked; only for tests.
func (lm *LockMap) held(inum common.Inum) bool {
	sh := lm.shard(inum)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	state, ok := sh.state[inum]
	return ok && state.held
}
