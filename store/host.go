package store

import (
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-fssim/util"
)

var _ Store = (*HostStore)(nil)

// HostStore keeps one host file per unit under a root directory.
type HostStore struct {
	root string
}

// NewHostStore uses root, which must exist unless create is set.
func NewHostStore(root string, create bool) (*HostStore, error) {
	if create {
		err := unix.Mkdir(root, 0777)
		if err != nil && err != unix.EEXIST {
			return nil, fmt.Errorf("mkdir %s: %v: %w", root, err, ErrUnavailable)
		}
	}
	var st unix.Stat_t
	if err := unix.Stat(root, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %v: %w", root, err, ErrUnavailable)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return nil, fmt.Errorf("%s is not a directory: %w", root, ErrUnavailable)
	}
	return &HostStore{root: root}, nil
}

func (s *HostStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%q: %w", name, ErrBadName)
	}
	return filepath.Join(s.root, name), nil
}

func (s *HostStore) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	return unix.Access(p, unix.F_OK) == nil
}

func (s *HostStore) Open(name string, mode Mode) (Unit, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	var flags int
	switch mode {
	case ReadOnly:
		flags = unix.O_RDONLY
	case ReadWrite:
		flags = unix.O_RDWR
	case Create:
		flags = unix.O_RDWR | unix.O_CREAT
	default:
		panic("Open: mode")
	}
	fd, err := unix.Open(p, flags|unix.O_CLOEXEC, 0666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", p, err, ErrUnavailable)
	}
	util.DPrintf(5, "host open %s %v fd %d\n", p, mode, fd)
	return &hostUnit{fd: fd, path: p}, nil
}

func (s *HostStore) Close() error {
	return nil
}

type hostUnit struct {
	fd   int
	path string
}

func (u *hostUnit) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(u.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", u.path, err)
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

func (u *hostUnit) Write(p []byte) (int, error) {
	n, err := unix.Write(u.fd, p)
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %v: %w", u.path, err, ErrShortWrite)
	}
	if n != len(p) {
		return n, fmt.Errorf("write %s: %d of %d bytes: %w", u.path, n, len(p), ErrShortWrite)
	}
	return n, nil
}

func (u *hostUnit) SeekEnd() error {
	_, err := unix.Seek(u.fd, 0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek %s: %w", u.path, err)
	}
	return nil
}

func (u *hostUnit) Close() error {
	err := unix.Close(u.fd)
	if err != nil {
		return fmt.Errorf("close %s: %w", u.path, err)
	}
	return nil
}
