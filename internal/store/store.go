// Package store persists the configuration record in a fixed region of
// non-volatile storage.
//
// The record lives at a fixed offset inside a small Device (an image file on
// a host, or memory in tests). Load never fails: anything other than a valid
// record, including read errors, yields StatusFresh and the default record.
// The cause is logged rather than returned. Save writes and syncs
// synchronously and must complete before a restart that depends on it.
package store

import (
	"fmt"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/logging"
	"github.com/muurk/wifiportal/internal/record"
)

// Status describes what Load found.
type Status int

const (
	// StatusFresh means no valid record was found (first boot, corruption
	// or a read failure). The returned record is record.Default().
	StatusFresh Status = iota + 1
	// StatusLoaded means a previously saved record was read.
	StatusLoaded
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "Fresh"
	case StatusLoaded:
		return "Loaded"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Store reads and writes the record at a fixed offset of a Device.
type Store struct {
	dev    Device
	offset int64
}

// New returns a Store for the record at offset. The record must fit in
// the device.
func New(dev Device, offset int64) (*Store, error) {
	if offset < 0 || offset+record.Size > dev.Size() {
		return nil, fault.NewValidationError(fmt.Sprintf(
			"record of %d bytes at offset %d does not fit in %d bytes of storage",
			record.Size, offset, dev.Size()))
	}
	return &Store{dev: dev, offset: offset}, nil
}

// Load reads the stored record. On StatusFresh the defaults are written
// back so the next boot finds a valid record.
func (s *Store) Load() (record.Record, Status) {
	rec, err := s.read()
	if err == nil {
		logging.LogStore("load", s.offset, nil)
		return rec, StatusLoaded
	}

	logging.LogStore("load", s.offset, err)

	rec = record.Default()
	if err := s.Save(rec); err != nil {
		logging.LogStore("init", s.offset, err)
	}
	return rec, StatusFresh
}

// Save writes rec at the fixed offset and syncs the device.
func (s *Store) Save(rec record.Record) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := s.dev.WriteAt(data, s.offset); err != nil {
		return fault.NewStorageWriteError("write record", err)
	}
	if err := s.dev.Sync(); err != nil {
		return fault.NewStorageWriteError("sync storage", err)
	}
	logging.LogStore("save", s.offset, nil)
	return nil
}

// Inspect reads the stored record without the fresh-boot write back.
func (s *Store) Inspect() (record.Record, error) {
	return s.read()
}

// Close closes the underlying device.
func (s *Store) Close() error {
	return s.dev.Close()
}

func (s *Store) read() (record.Record, error) {
	buf := make([]byte, record.Size)
	if _, err := s.dev.ReadAt(buf, s.offset); err != nil {
		return record.Record{}, fault.NewStorageReadError("read record", err)
	}

	var rec record.Record
	if err := rec.UnmarshalBinary(buf); err != nil {
		return record.Record{}, fault.NewStorageReadError("decode record", err)
	}
	return rec, nil
}
