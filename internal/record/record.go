// Package record defines the persisted WiFi configuration record.
//
// The record is the only piece of mutable state on the device: the network
// credentials and the mode the device boots into. It is created with defaults
// at process start, replaced by a valid stored copy when one exists, mutated
// by the portal handlers and flushed to storage before each restart.
//
// Credentials are bounded to MaxCredentialLen bytes. Assignment through
// SetSSID and SetPass truncates on a UTF-8 boundary so a stored value always
// fits its fixed-size slot.
package record

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/muurk/wifiportal/internal/fault"
)

// MaxCredentialLen is the longest SSID or password the record can hold.
// Each slot is 32 bytes in storage including the NUL terminator.
const MaxCredentialLen = 31

// Mode selects what the device does at boot.
type Mode uint8

const (
	// ModeSettings starts the configuration portal on the default access point
	ModeSettings Mode = 0
	// ModeHotspot starts an access point with the stored SSID and password
	ModeHotspot Mode = 1
	// ModeStation joins the stored network as a client
	ModeStation Mode = 2
)

// String returns the mode name as shown in logs and the CLI
func (m Mode) String() string {
	switch m {
	case ModeSettings:
		return "SETTINGS"
	case ModeHotspot:
		return "HOTSPOT"
	case ModeStation:
		return "STATION"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the defined modes
func (m Mode) Valid() bool {
	return m == ModeSettings || m == ModeHotspot || m == ModeStation
}

// ParseMode parses a mode name, case-insensitively. "ap" and "sta" are
// accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "settings":
		return ModeSettings, nil
	case "hotspot", "ap":
		return ModeHotspot, nil
	case "station", "sta":
		return ModeStation, nil
	default:
		return ModeSettings, fault.NewValidationError(fmt.Sprintf("unknown mode %q (expected settings, hotspot or station)", s))
	}
}

// Record is the persisted configuration.
type Record struct {
	SSID string
	Pass string
	Mode Mode
}

// Default returns the first-boot record: settings mode, no credentials.
func Default() Record {
	return Record{Mode: ModeSettings}
}

// SetSSID assigns the SSID, truncating to MaxCredentialLen bytes.
// It reports whether the value was truncated.
func (r *Record) SetSSID(ssid string) bool {
	var truncated bool
	r.SSID, truncated = bounded(ssid)
	return truncated
}

// SetPass assigns the password, truncating to MaxCredentialLen bytes.
// It reports whether the value was truncated.
func (r *Record) SetPass(pass string) bool {
	var truncated bool
	r.Pass, truncated = bounded(pass)
	return truncated
}

// Apply overwrites both credentials and switches to mode.
func (r *Record) Apply(mode Mode, ssid, pass string) (truncated bool) {
	r.Mode = mode
	t1 := r.SetSSID(ssid)
	t2 := r.SetPass(pass)
	return t1 || t2
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if !r.Mode.Valid() {
		return fault.NewValidationError(fmt.Sprintf("invalid mode %d", uint8(r.Mode)))
	}
	if err := ValidateCredential("ssid", r.SSID); err != nil {
		return err
	}
	return ValidateCredential("pass", r.Pass)
}

// ValidateCredential rejects values that cannot be stored verbatim.
func ValidateCredential(field, value string) error {
	if len(value) > MaxCredentialLen {
		return fault.NewValidationError(fmt.Sprintf("%s too long (max %d bytes): %d bytes", field, MaxCredentialLen, len(value)))
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fault.NewValidationError(fmt.Sprintf("%s contains a NUL byte", field))
	}
	return nil
}

// String returns a log-friendly summary. The password is not printed.
func (r Record) String() string {
	return fmt.Sprintf("mode=%s ssid=%q pass=%d bytes", r.Mode, r.SSID, len(r.Pass))
}

// bounded cuts s to MaxCredentialLen bytes without splitting a rune and
// drops anything after an embedded NUL, which storage would treat as the end.
func bounded(s string) (string, bool) {
	truncated := false
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
		truncated = true
	}
	if len(s) <= MaxCredentialLen {
		return s, truncated
	}
	cut := MaxCredentialLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
