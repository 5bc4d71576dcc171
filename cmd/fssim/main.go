// fssim - a small hierarchical filesystem kept in a host directory, one file
// per inode.
//
// Usage:
//
//	fssim [-root fs] [-backend host|mem|disk] [-image path] [-mkfs] [-debug n]
//
// Commands are read from standard input, one per line; see package shell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mit-pdos/go-fssim/fs"
	"github.com/mit-pdos/go-fssim/shell"
	"github.com/mit-pdos/go-fssim/store"
	"github.com/mit-pdos/go-fssim/util"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func openStore(backend, root, image string, create bool) (store.Store, error) {
	switch backend {
	case "host":
		return store.NewHostStore(root, create)
	case "mem":
		return store.NewMemStore(), nil
	case "disk":
		if image == "" {
			return store.NewMemBlockStore(), nil
		}
		return store.NewFileBlockStore(image)
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("fssim", flag.ContinueOnError)
	flags.SetOutput(stderr)
	root := flags.String("root", "fs", "host directory holding the units")
	backend := flags.String("backend", "host", "unit store: host, mem or disk")
	image := flags.String("image", "", "disk image for the disk backend (empty: in memory)")
	mkfs := flags.Bool("mkfs", false, "create the root directory if absent")
	prompt := flags.Bool("prompt", true, "print a prompt before each command")
	debug := flags.Uint64("debug", 0, "debug log level")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 0 {
		fmt.Fprintf(stderr, "fssim: unexpected arguments %v\n", flags.Args())
		return 2
	}
	util.Debug = *debug

	s, err := openStore(*backend, *root, *image, *mkfs)
	if err != nil {
		fmt.Fprintf(stderr, "fssim: %v\n", err)
		return 1
	}
	defer s.Close()

	ephemeral := *backend == "mem" || (*backend == "disk" && *image == "")
	if *mkfs || ephemeral {
		if err := fs.Mkfs(s); err != nil {
			fmt.Fprintf(stderr, "fssim: %v\n", err)
			return 1
		}
	}

	fsys, err := fs.Mount(s)
	if errors.Is(err, fs.ErrIntegrity) {
		fmt.Fprintf(stderr, "fssim: %v\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "fssim: mount: %v\n", err)
		return 1
	}

	if err := shell.MkShell(fsys, stdout, *prompt).Run(stdin); err != nil {
		fmt.Fprintf(stderr, "fssim: %v\n", err)
		return 1
	}
	return 0
}
