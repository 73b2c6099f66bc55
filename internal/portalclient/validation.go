package portalclient

import (
	"fmt"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/record"
)

// MinWPAPassLen is the shortest WPA2 passphrase an access point accepts.
const MinWPAPassLen = 8

// ValidateCredentials checks credentials before they are sent.
// Returns a slice of validation errors (empty if valid).
//
// Both fields must fit the portal's 31-byte slots. A hotspot password is
// either empty (open network) or a WPA2 passphrase of at least 8 bytes.
func ValidateCredentials(mode record.Mode, ssid, pass string) []error {
	var errs []error

	if ssid == "" {
		errs = append(errs, fault.NewValidationError("WiFi SSID cannot be empty"))
	} else if err := record.ValidateCredential("ssid", ssid); err != nil {
		errs = append(errs, err)
	}

	if err := record.ValidateCredential("pass", pass); err != nil {
		errs = append(errs, err)
	}

	if mode == record.ModeHotspot && pass != "" && len(pass) < MinWPAPassLen {
		errs = append(errs, fault.NewValidationError(
			fmt.Sprintf("hotspot password too short (min %d chars): %d chars", MinWPAPassLen, len(pass))))
	}

	return errs
}
