package filesystem

import (
	"errors"
	"io"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// File is a handle on one inode that satisfies io.ReaderAt and io.WriterAt
type File struct {
	fs      *FileSystem
	inumber types.Inumber
}

// Open returns a handle on an existing inode
func (fs *FileSystem) Open(inumber types.Inumber) (*File, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if _, err := fs.validInode("open", inumber); err != nil {
		return nil, err
	}
	return &File{fs: fs, inumber: inumber}, nil
}

// Inumber returns the inode behind the handle
func (f *File) Inumber() types.Inumber {
	return f.inumber
}

// Size returns the current logical size
func (f *File) Size() (int64, error) {
	return f.fs.GetSize(f.inumber)
}

// ReadAt implements io.ReaderAt. A short read ends with io.EOF.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := f.fs.Read(f.inumber, p, off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := f.fs.Write(f.inumber, p, off)
	if err == nil && n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, err
}

// IsNoSpace reports whether err came from a write stopped by a full device
func IsNoSpace(err error) bool {
	return errors.Is(err, types.ErrNoSpace)
}
