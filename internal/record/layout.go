package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Storage layout of one record:
//
//	offset  size  content
//	0       1     key byte 'w' (written on first save)
//	1       1     layout version
//	2       32    ssid, NUL padded
//	34      32    pass, NUL padded
//	66      1     mode
//	67      4     CRC-32 (IEEE, little endian) of bytes 0..66
const (
	Key     byte = 'w'
	Version byte = 1

	slotSize   = MaxCredentialLen + 1
	offKey     = 0
	offVersion = 1
	offSSID    = 2
	offPass    = offSSID + slotSize
	offMode    = offPass + slotSize
	offCRC     = offMode + 1

	// Size is the number of bytes a record occupies in storage.
	Size = offCRC + 4
)

var (
	// ErrNoRecord means the key byte is missing: nothing was ever written.
	ErrNoRecord = errors.New("no record written")
	// ErrVersion means the record was written with an unknown layout.
	ErrVersion = errors.New("unsupported record version")
	// ErrChecksum means the stored bytes are corrupt.
	ErrChecksum = errors.New("record checksum mismatch")
	// ErrMode means the stored mode is not a defined Mode.
	ErrMode = errors.New("record mode out of range")
)

// MarshalBinary encodes the record into its fixed Size-byte layout.
func (r Record) MarshalBinary() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, Size)
	buf[offKey] = Key
	buf[offVersion] = Version
	copy(buf[offSSID:offSSID+MaxCredentialLen], r.SSID)
	copy(buf[offPass:offPass+MaxCredentialLen], r.Pass)
	buf[offMode] = byte(r.Mode)
	binary.LittleEndian.PutUint32(buf[offCRC:], crc32.ChecksumIEEE(buf[:offCRC]))
	return buf, nil
}

// UnmarshalBinary decodes a record previously written by MarshalBinary.
// The key byte, version, checksum and mode are all checked.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return fmt.Errorf("record too short: %d bytes (want %d)", len(data), Size)
	}
	if data[offKey] != Key {
		return ErrNoRecord
	}
	if data[offVersion] != Version {
		return fmt.Errorf("%w: %d", ErrVersion, data[offVersion])
	}
	want := binary.LittleEndian.Uint32(data[offCRC:])
	if got := crc32.ChecksumIEEE(data[:offCRC]); got != want {
		return fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksum, want, got)
	}
	mode := Mode(data[offMode])
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", ErrMode, data[offMode])
	}

	r.SSID = cString(data[offSSID : offSSID+slotSize])
	r.Pass = cString(data[offPass : offPass+slotSize])
	r.Mode = mode
	return nil
}

// cString returns the bytes up to the first NUL, never more than
// MaxCredentialLen.
func cString(slot []byte) string {
	if i := bytes.IndexByte(slot, 0); i >= 0 {
		slot = slot[:i]
	}
	if len(slot) > MaxCredentialLen {
		slot = slot[:MaxCredentialLen]
	}
	return string(slot)
}
