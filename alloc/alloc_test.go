package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-fssim/common"
)

type probe map[string]bool

func (p probe) Exists(name string) bool { return p[name] }

func TestAlloc(t *testing.T) {
	assert := assert.New(t)
	max := uint64(32)
	a := MkMaxAlloc(max)

	assert.Equal(max-1, a.NumFree(), "everything (but 0) should be initially free")

	n, err := a.AllocNum()
	assert.Nil(err)
	assert.Equal(common.Inum(1), n, "should start at 1, never 0")

	a.MarkUsed(n + 1)
	n2, err := a.AllocNum()
	assert.Nil(err)
	assert.NotEqual(n+1, n2, "should not allocate something marked used")
	assert.Equal(common.Inum(3), n2)

	assert.Equal(max-4, a.NumFree(), "should have used 3 items")
}

func TestInitProbe(t *testing.T) {
	assert := assert.New(t)
	a := MkMaxAlloc(16)
	a.MarkUsed(9)
	a.Init(probe{"0": true, "1": true, "2": true, "5": true, "inodes_list": true})

	assert.True(a.IsUsed(0))
	assert.True(a.IsUsed(5))
	assert.False(a.IsUsed(9), "init clears the table")
	assert.Equal(uint64(16-1-3), a.NumFree())

	var got []common.Inum
	for i := 0; i < 4; i++ {
		n, err := a.AllocNum()
		assert.Nil(err)
		got = append(got, n)
	}
	assert.Equal([]common.Inum{3, 4, 6, 7}, got)
}

func TestDistinctIncreasing(t *testing.T) {
	assert := assert.New(t)
	a := MkMaxAlloc(common.MAXINODES)
	a.Init(probe{"0": true})
	seen := make(map[common.Inum]bool)
	prev := common.Inum(0)
	for i := 0; i < 100; i++ {
		n, err := a.AllocNum()
		assert.Nil(err)
		assert.False(seen[n])
		assert.True(n > prev)
		seen[n] = true
		prev = n
	}
}

func TestExhausted(t *testing.T) {
	assert := assert.New(t)
	a := MkMaxAlloc(4)
	for i := 0; i < 3; i++ {
		_, err := a.AllocNum()
		assert.Nil(err)
	}
	n, err := a.AllocNum()
	assert.Equal(ErrExhausted, err)
	assert.Equal(common.NULLINUM, n)
	assert.Equal(uint64(0), a.NumFree())
	assert.False(a.IsUsed(0), "root is never handed out")
}

func TestRange(t *testing.T) {
	a := MkMaxAlloc(4)
	assert.Panics(t, func() { a.MarkUsed(4) })
	assert.Panics(t, func() { MkMaxAlloc(0) })
}
