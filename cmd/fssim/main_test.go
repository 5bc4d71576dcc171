package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempRoot(t *testing.T) string {
	dir, err := ioutil.TempDir("", "fssim")
	require.Nil(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "fs")
}

func TestMissingRoot(t *testing.T) {
	root := tempRoot(t)
	require.Nil(t, os.Mkdir(root, 0777))
	var stdout, stderr bytes.Buffer
	code := run([]string{"-root", root}, strings.NewReader("ls\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Equal(t, "", stdout.String(), "command loop never starts")
	assert.Contains(t, stderr.String(), "root integrity check failed")
}

func TestMkfsAndReopen(t *testing.T) {
	root := tempRoot(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"-root", root, "-mkfs", "-prompt=false"},
		strings.NewReader("mkdir sub\nexit\n"), &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Directory 'sub' created with inode 7\n", stdout.String())

	stdout.Reset()
	code = run([]string{"-root", root, "-prompt=false"},
		strings.NewReader("cd sub\nls\n"), &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "7 .\n0 ..\n", stdout.String())
}

func TestMemBackend(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-backend", "mem"}, strings.NewReader("touch f\n"), &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, "> File 'f' created with inode 7\n> ", stdout.String())
}

func TestDiskImage(t *testing.T) {
	img := filepath.Join(filepath.Dir(tempRoot(t)), "disk.img")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-backend", "disk", "-image", img, "-mkfs", "-prompt=false"},
		strings.NewReader("mkdir a\n"), &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())

	stdout.Reset()
	code = run([]string{"-backend", "disk", "-image", img, "-prompt=false"},
		strings.NewReader("ls\n"), &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "7 a\n", stdout.String())
}

func TestBadUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"extra"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"-backend", "tape"}, strings.NewReader(""), &stdout, &stderr))
}

func TestForeignImage(t *testing.T) {
	img := filepath.Join(filepath.Dir(tempRoot(t)), "foreign.img")
	require.Nil(t, ioutil.WriteFile(img, bytes.Repeat([]byte{0xff}, 4096), 0666))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-backend", "disk", "-image", img},
		strings.NewReader("ls\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Equal(t, "", stdout.String(), "command loop never starts")
	assert.Contains(t, stderr.String(), "root integrity check failed")
	assert.Contains(t, stderr.String(), "corrupt header")
}
