package filesystem

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-simplefs/internal/types"
)

// Write stores data into inumber starting at offset and returns the bytes written.
//
// offset may be anywhere up to the current size; holes are not supported, so a
// start past the end of file is ErrInvalidArgument, as is any range reaching past
// MaxFileSize. Bytes inside already allocated blocks are overwritten in place.
// The rest is appended into newly allocated blocks. When the device runs out of
// free blocks the write stops and returns the short count with ErrNoSpace.
func (fs *FileSystem) Write(inumber types.Inumber, data []byte, offset int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino, err := fs.validInode("write", inumber)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, types.NewError("write", inumber, types.ErrInvalidArgument, fmt.Errorf("empty buffer"))
	}
	if offset < 0 {
		return 0, types.NewError("write", inumber, types.ErrInvalidArgument, fmt.Errorf("negative offset %d", offset))
	}
	if offset > ino.Size {
		return 0, types.NewError("write", inumber, types.ErrInvalidArgument,
			fmt.Errorf("offset %d beyond end of file at %d", offset, ino.Size))
	}
	if offset+int64(len(data)) > types.MaxFileSize {
		return 0, types.NewError("write", inumber, types.ErrInvalidArgument,
			fmt.Errorf("range [%d, %d) exceeds maximum file size %d", offset, offset+int64(len(data)), types.MaxFileSize))
	}

	w := &fileWriter{
		fs:      fs,
		inumber: inumber,
		ino:     ino,
		data:    data,
		pos:     offset,
	}
	w.resolver = fs.newResolver("write", inumber, &w.ino)

	if err := w.overwrite(); err != nil {
		return w.n, err
	}
	if w.n == len(data) {
		return w.n, nil
	}
	return w.n, w.appendBlocks()
}

// fileWriter carries the state of one Write call
type fileWriter struct {
	fs       *FileSystem
	inumber  types.Inumber
	ino      types.Inode
	resolver *blockResolver
	data     []byte
	pos      int64
	n        int
}

// overwrite covers the part of the range inside blocks the file already owns.
// Nothing is allocated here. Writing into the slack of the last block grows the size.
func (w *fileWriter) overwrite() error {
	allocated := int64(w.ino.UsedBlocks()) * types.BlockSize
	entrySize := w.ino.Size
	block := newBlock()

	for w.n < len(w.data) && w.pos < allocated {
		b, err := w.resolver.resolve(w.pos)
		if err != nil {
			return err
		}

		within := int(w.pos % types.BlockSize)
		chunk := min(types.BlockSize-within, len(w.data)-w.n)
		if chunk < types.BlockSize {
			if err := w.fs.readBlock("write", w.inumber, b, block); err != nil {
				return err
			}
		}
		copy(block[within:within+chunk], w.data[w.n:w.n+chunk])
		if err := w.fs.writeBlock("write", w.inumber, b, block); err != nil {
			return err
		}

		w.n += chunk
		w.pos += int64(chunk)
		if w.pos > w.ino.Size {
			w.ino.Size = w.pos
		}
	}

	if w.ino.Size != entrySize {
		return w.fs.saveInode("write", w.inumber, w.ino)
	}
	return nil
}

// appendBlocks allocates one block per BlockSize bytes still to write, taking
// direct slots first and then entries of the pointer block, which is itself
// allocated the first time the direct slots run out.
func (w *fileWriter) appendBlocks() error {
	// pos sits on a block boundary here: overwrite stops at the end of the last owned block.
	slot := slotFor(w.pos)
	hasIndirect := w.ino.UsedBlocks() > types.PointersPerInode
	cursor := w.fs.sb.FirstDataBlock()
	block := newBlock()

	for w.n < len(w.data) {
		if slot >= types.MaxFileBlocks {
			return types.NewError("write", w.inumber, types.ErrInvalidArgument, fmt.Errorf("file is at maximum size"))
		}

		if slot >= types.PointersPerInode && !hasIndirect {
			ib, ok := w.fs.free.Allocate(cursor)
			if !ok {
				return w.noSpace()
			}
			// Keep the pointer block only if a data block can follow it.
			if _, ok := w.fs.free.NextFree(ib + 1); !ok {
				_ = w.fs.free.Release(ib)
				return w.noSpace()
			}
			pointers := w.resolver.setIndirect(ib)
			if err := w.fs.writePointerBlock("write", w.inumber, ib, pointers); err != nil {
				_ = w.fs.free.Release(ib)
				return err
			}
			if err := w.fs.saveInode("write", w.inumber, w.ino); err != nil {
				return err
			}
			hasIndirect = true
			cursor = ib + 1
			w.fs.log.WithFields(logrus.Fields{"inumber": w.inumber, "block": ib}).Debug("allocated indirect block")
			continue
		}

		b, ok := w.fs.free.Allocate(cursor)
		if !ok {
			return w.noSpace()
		}
		cursor = b + 1

		chunk := min(types.BlockSize, len(w.data)-w.n)
		clear(block)
		copy(block, w.data[w.n:w.n+chunk])
		if err := w.fs.writeBlock("write", w.inumber, b, block); err != nil {
			_ = w.fs.free.Release(b)
			return err
		}

		if slot < types.PointersPerInode {
			w.ino.Direct[slot] = b
		} else {
			pointers, err := w.resolver.indirect()
			if err != nil {
				return err
			}
			pointers[slot-types.PointersPerInode] = b
			if err := w.fs.writePointerBlock("write", w.inumber, w.ino.Indirect, pointers); err != nil {
				return err
			}
		}

		w.ino.Size += int64(chunk)
		w.n += chunk
		w.pos += int64(chunk)
		slot++

		if err := w.fs.saveInode("write", w.inumber, w.ino); err != nil {
			return err
		}
		w.fs.log.WithFields(logrus.Fields{"inumber": w.inumber, "block": b, "slot": slot - 1}).Debug("allocated data block")
	}

	return nil
}

func (w *fileWriter) noSpace() error {
	w.fs.log.WithFields(logrus.Fields{
		"inumber": w.inumber,
		"written": w.n,
		"wanted":  len(w.data),
	}).Warn("device full, write truncated")
	return types.NewError("write", w.inumber, types.ErrNoSpace, nil)
}
