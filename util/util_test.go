package util

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(f func()) string {
	var b bytes.Buffer
	log.SetOutput(&b)
	defer log.SetOutput(os.Stderr)
	f()
	return b.String()
}

func TestDPrintfLevel(t *testing.T) {
	assert := assert.New(t)
	old := Debug
	defer func() { Debug = old }()

	Debug = 1
	out := capture(func() { DPrintf(1, "mint %d\n", 7) })
	assert.Contains(out, "mint 7")

	out = capture(func() { DPrintf(5, "read %d\n", 7) })
	assert.Equal("", out, "above threshold is silent")
}

func TestDump(t *testing.T) {
	assert := assert.New(t)
	old := Debug
	defer func() { Debug = old }()

	Debug = 10
	out := capture(func() { Dump(10, "entries", []string{"sub"}) })
	assert.Contains(out, "entries:")
	assert.Contains(out, "sub")
}
