package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Device is a fixed-size block of non-volatile storage.
type Device interface {
	io.ReaderAt
	io.WriterAt
	// Size is the capacity in bytes.
	Size() int64
	// Sync makes previous writes durable.
	Sync() error
	Close() error
}

// FileDevice is a Device backed by an image file on disk.
type FileDevice struct {
	f    *os.File
	size int64
}

// OpenFile opens (creating if needed) an image file of exactly size bytes.
// A new image reads back as zeros, which Load treats as "never written".
func OpenFile(path string, size int64) (*FileDevice, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid storage size %d", size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat storage image: %w", err)
	}
	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to size storage image: %w", err)
		}
	}

	return &FileDevice{f: f, size: size}, nil
}

// OpenFileReadOnly opens an existing image without creating, resizing or
// writing it. A missing image returns an error wrapping os.ErrNotExist.
// An image shorter than the record reads as invalid.
func OpenFileReadOnly(path string, size int64) (*FileDevice, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid storage size %d", size)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage image: %w", err)
	}
	return &FileDevice{f: f, size: size}, nil
}

// ReadAt implements io.ReaderAt within the device bounds.
func (d *FileDevice) ReadAt(p []byte, off int64) (int, error) {
	if err := checkBounds(len(p), off, d.size); err != nil {
		return 0, err
	}
	return d.f.ReadAt(p, off)
}

// WriteAt implements io.WriterAt within the device bounds.
func (d *FileDevice) WriteAt(p []byte, off int64) (int, error) {
	if err := checkBounds(len(p), off, d.size); err != nil {
		return 0, err
	}
	return d.f.WriteAt(p, off)
}

// Size returns the device capacity.
func (d *FileDevice) Size() int64 { return d.size }

// Sync flushes the image file to disk.
func (d *FileDevice) Sync() error { return d.f.Sync() }

// Close closes the image file.
func (d *FileDevice) Close() error { return d.f.Close() }

// MemDevice is an in-memory Device.
type MemDevice struct {
	mu   sync.Mutex
	data []byte
}

// NewMemDevice returns a zeroed in-memory device of size bytes.
func NewMemDevice(size int) *MemDevice {
	return &MemDevice{data: make([]byte, size)}
}

// ReadAt implements io.ReaderAt.
func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkBounds(len(p), off, int64(len(d.data))); err != nil {
		return 0, err
	}
	return copy(p, d.data[off:]), nil
}

// WriteAt implements io.WriterAt.
func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkBounds(len(p), off, int64(len(d.data))); err != nil {
		return 0, err
	}
	return copy(d.data[off:], p), nil
}

// Bytes returns a copy of the device contents.
func (d *MemDevice) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.data...)
}

// Size returns the device capacity.
func (d *MemDevice) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.data))
}

// Sync is a no-op.
func (d *MemDevice) Sync() error { return nil }

// Close is a no-op.
func (d *MemDevice) Close() error { return nil }

func checkBounds(n int, off, size int64) error {
	if off < 0 || off+int64(n) > size {
		return fmt.Errorf("access [%d,%d) outside device of %d bytes", off, off+int64(n), size)
	}
	return nil
}
