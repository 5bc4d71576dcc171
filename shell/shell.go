// Package shell reads commands one per line and runs them against a mounted
// filesystem:
//
//	ls            list the current directory
//	cd NAME       enter a directory
//	mkdir NAME    create a directory
//	touch NAME    create a file
//	pwd           print the current directory's inode number
//	fsck          check the tree for dangling entries
//	exit          stop
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mit-pdos/go-fssim/alloc"
	"github.com/mit-pdos/go-fssim/dir"
	"github.com/mit-pdos/go-fssim/fs"
)

const Prompt = "> "

type Shell struct {
	fsys   *fs.Fs
	out    io.Writer
	prompt bool
}

func MkShell(fsys *fs.Fs, out io.Writer, prompt bool) *Shell {
	return &Shell{fsys: fsys, out: out, prompt: prompt}
}

// Run executes commands from in until "exit" or the end of input. Lines may
// be of any length; a final line without a newline is still run.
func (sh *Shell) Run(in io.Reader) error {
	r := bufio.NewReader(in)
	for {
		if sh.prompt {
			fmt.Fprint(sh.out, Prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if line == "" && err == io.EOF {
			return nil
		}
		if !sh.Exec(strings.TrimRight(line, "\r\n")) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether to keep going.
func (sh *Shell) Exec(line string) bool {
	switch {
	case line == "exit":
		return false
	case line == "ls":
		sh.ls()
	case line == "pwd":
		fmt.Fprintf(sh.out, "%d\n", sh.fsys.Cwd())
	case line == "fsck":
		sh.fsck()
	case strings.HasPrefix(line, "cd "):
		sh.cd(line[len("cd "):])
	case strings.HasPrefix(line, "mkdir "):
		sh.mkdir(line[len("mkdir "):])
	case strings.HasPrefix(line, "touch "):
		sh.touch(line[len("touch "):])
	default:
		fmt.Fprintf(sh.out, "Unknown command\n")
	}
	return true
}

func (sh *Shell) fail(what string, err error) {
	fmt.Fprintf(sh.out, "%s: %v\n", what, err)
}

func (sh *Shell) ls() {
	ents, err := sh.fsys.Ls()
	if err != nil {
		sh.fail("Failed to open directory", err)
		return
	}
	for _, de := range ents {
		fmt.Fprintf(sh.out, "%d %s\n", de.Inum, de.Name)
	}
}

func (sh *Shell) cd(name string) {
	err := sh.fsys.Cd(name)
	switch {
	case err == nil:
	case fs.IsNotFound(err):
		fmt.Fprintf(sh.out, "Directory not found\n")
	case errors.Is(err, dir.ErrNotDir):
		fmt.Fprintf(sh.out, "Not a directory\n")
	default:
		sh.fail("Failed to open directory", err)
	}
}

func (sh *Shell) mkdir(name string) {
	inum, created, err := sh.fsys.Mkdir(name)
	switch {
	case err == nil:
		if created {
			fmt.Fprintf(sh.out, "Directory '%s' created with inode %d\n", name, inum)
		}
	case errors.Is(err, alloc.ErrExhausted), errors.Is(err, dir.ErrReserved):
		fmt.Fprintf(sh.out, "No suitable inodes available\n")
	default:
		sh.fail("Failed to create directory", err)
	}
}

func (sh *Shell) touch(name string) {
	inum, created, err := sh.fsys.Touch(name)
	switch {
	case err == nil:
		if created {
			fmt.Fprintf(sh.out, "File '%s' created with inode %d\n", name, inum)
		}
	case errors.Is(err, alloc.ErrExhausted):
		fmt.Fprintf(sh.out, "No inodes available\n")
	default:
		sh.fail("Failed to create file", err)
	}
}

func (sh *Shell) fsck() {
	problems, err := sh.fsys.Check()
	for _, p := range problems {
		fmt.Fprintf(sh.out, "%v\n", p)
	}
	if err != nil {
		sh.fail("Check failed", err)
		return
	}
	if len(problems) == 0 {
		fmt.Fprintf(sh.out, "clean\n")
	}
}
