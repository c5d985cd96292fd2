// Package static validates response targets and maps their content into memory.
package static

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/indigo-web/liso/http/status"
	"golang.org/x/sys/unix"
)

// ownerRead is the permission bit a file must have in order to be served.
const ownerRead fs.FileMode = 0o400

// File is a validated regular file. The content is present only if the file was
// opened for transmission, and is released by Close.
type File struct {
	Name    string
	Size    int64
	ModTime time.Time
	content []byte
}

// Stat validates the target without opening it. A missing file results in
// status.ErrNotFound, anything that can't be served in status.ErrForbidden.
func Stat(name string) (*File, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, classify(err)
	}

	if err = validate(info); err != nil {
		return nil, err
	}

	return &File{
		Name:    name,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Open validates the target and maps its content read-only. The descriptor is closed
// right after mapping, the mapping itself lives until Close.
//
// The target is validated before it's opened, as opening a FIFO blocks until a writer
// shows up. The descriptor is checked once more, in case the file was replaced in
// between.
func Open(name string) (*File, error) {
	if _, err := Stat(name); err != nil {
		return nil, err
	}

	fd, err := os.OpenFile(name, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, classify(err)
	}

	defer fd.Close()

	info, err := fd.Stat()
	if err != nil {
		return nil, classify(err)
	}

	if err = validate(info); err != nil {
		return nil, err
	}

	file := &File{
		Name:    name,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	if file.Size == 0 {
		// empty files can't be mapped
		return file, nil
	}

	file.content, err = unix.Mmap(int(fd.Fd()), 0, int(file.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", name, err)
	}

	return file, nil
}

// Content returns the mapped bytes. Nil for files obtained via Stat and for empty files.
func (f *File) Content() []byte {
	return f.content
}

// Close releases the mapping. It's safe to call it multiple times.
func (f *File) Close() error {
	if f.content == nil {
		return nil
	}

	content := f.content
	f.content = nil

	return unix.Munmap(content)
}

func validate(info fs.FileInfo) error {
	if !info.Mode().IsRegular() || info.Mode().Perm()&ownerRead == 0 {
		return status.ErrForbidden
	}

	return nil
}

func classify(err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return status.ErrNotFound
	}

	return status.ErrForbidden
}
