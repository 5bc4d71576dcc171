package util

import (
	"log"

	"github.com/kr/pretty"
)

// Debug is the highest DPrintf level that is printed.
var Debug uint64 = 0

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= Debug {
		log.Printf(format, a...)
	}
}

// Dump pretty-prints v at the given level, prefixed by what.
func Dump(level uint64, what string, v interface{}) {
	if level <= Debug {
		log.Printf("%s: %s\n", what, pretty.Sprint(v))
	}
}
