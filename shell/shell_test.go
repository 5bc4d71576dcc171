package shell

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-fssim/fs"
	"github.com/mit-pdos/go-fssim/store"
)

func run(t *testing.T, s store.Store, script string) string {
	fsys, err := fs.Mount(s)
	require.Nil(t, err)
	var out bytes.Buffer
	require.Nil(t, MkShell(fsys, &out, false).Run(strings.NewReader(script)))
	return out.String()
}

func mkStore(t *testing.T) *store.MemStore {
	s := store.NewMemStore()
	require.Nil(t, fs.Mkfs(s))
	return s
}

func TestSession(t *testing.T) {
	s := mkStore(t)
	out := run(t, s, `ls
mkdir sub
mkdir sub
ls
cd sub
pwd
ls
touch f
touch f
cd f
cd missing
cd ..
pwd
fsck
bogus
exit
ls
`)
	want := `Directory 'sub' created with inode 7
7 sub
7
7 .
0 ..
File 'f' created with inode 8
Not a directory
Directory not found
0
clean
Unknown command
`
	assert.Equal(t, want, out)
}

func TestPrompt(t *testing.T) {
	s := mkStore(t)
	fsys, err := fs.Mount(s)
	require.Nil(t, err)
	var out bytes.Buffer
	assert.Nil(t, MkShell(fsys, &out, true).Run(strings.NewReader("pwd\n")))
	assert.Equal(t, "> 0\n> ", out.String(), "end of input stops the loop")
}

func TestCRLF(t *testing.T) {
	out := run(t, mkStore(t), "mkdir a\r\nls\r\n")
	assert.Equal(t, "Directory 'a' created with inode 7\n7 a\n", out)
}

func TestBareCommands(t *testing.T) {
	out := run(t, mkStore(t), "cd\nmkdir\n\n")
	assert.Equal(t, "Unknown command\nUnknown command\nUnknown command\n", out)
}

func TestDanglingEntry(t *testing.T) {
	s := mkStore(t)
	run(t, s, "mkdir a\n")

	// Same root directory, but the unit for "a" is gone.
	s2 := store.NewMemStore()
	s2.Put("inodes_list", s.Bytes("inodes_list"))
	s2.Put("0", s.Bytes("0"))
	out := run(t, s2, "cd a\npwd\nfsck\n")
	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Failed to open directory: "), lines[0])
	assert.Equal(t, "0", lines[1])
	assert.Equal(t, `directory 0: "a" -> 7: missing unit`, lines[2])
}

func TestExhausted(t *testing.T) {
	s := mkStore(t)
	for i := 7; i < 1024; i++ {
		s.Put(strconv.Itoa(i), nil)
	}
	out := run(t, s, "mkdir a\ntouch b\nls\n")
	assert.Equal(t, "No suitable inodes available\nNo inodes available\n", out)
}

func TestLongLine(t *testing.T) {
	long := "mkdir " + strings.Repeat("n", 70*1024)
	out := run(t, mkStore(t), long+"\nbogus"+strings.Repeat("x", 70*1024)+"\npwd\n")
	assert.Equal(t, "Directory '"+long[len("mkdir "):]+"' created with inode 7\nUnknown command\n0\n", out)
}

func TestNoTrailingNewline(t *testing.T) {
	out := run(t, mkStore(t), "mkdir a\nls")
	assert.Equal(t, "Directory 'a' created with inode 7\n7 a\n", out)
}
