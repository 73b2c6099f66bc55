package fault

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"
)

// Kind represents the category of failure that occurred
type Kind int

const (
	// KindStorageRead indicates the persisted record could not be read or was invalid
	KindStorageRead Kind = iota
	// KindStorageWrite indicates the record could not be written back to storage
	KindStorageWrite
	// KindConnectTimeout indicates station mode did not associate before the deadline
	KindConnectTimeout
	// KindMissingPage indicates a static page could not be read from the page filesystem
	KindMissingPage
	// KindValidation indicates invalid credentials or settings
	KindValidation
	// KindNetwork indicates a network-level failure (listener, client request)
	KindNetwork
	// KindRadio indicates the radio backend refused a command
	KindRadio
	// KindUnknown indicates an unknown or unexpected error
	KindUnknown
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindStorageRead:
		return "Storage Read Error"
	case KindStorageWrite:
		return "Storage Write Error"
	case KindConnectTimeout:
		return "Connect Timeout"
	case KindMissingPage:
		return "Missing Page"
	case KindValidation:
		return "Validation Error"
	case KindNetwork:
		return "Network Error"
	case KindRadio:
		return "Radio Error"
	case KindUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error is the error type shared by the portal packages
type Error struct {
	Kind      Kind   // Category of error
	Message   string // Human-readable error message
	Err       error  // Underlying error (if any)
	Retryable bool   // Whether retrying the same operation can help
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewStorageReadError creates a storage read error
func NewStorageReadError(message string, err error) *Error {
	return &Error{Kind: KindStorageRead, Message: message, Err: err}
}

// NewStorageWriteError creates a storage write error
func NewStorageWriteError(message string, err error) *Error {
	return &Error{Kind: KindStorageWrite, Message: message, Err: err, Retryable: true}
}

// NewConnectTimeoutError creates the error reported when a station join
// exceeds its deadline.
func NewConnectTimeoutError(ssid string, after time.Duration) *Error {
	return &Error{
		Kind:    KindConnectTimeout,
		Message: fmt.Sprintf("no connection to %q after %s", ssid, after),
	}
}

// NewMissingPageError creates a missing page error
func NewMissingPageError(name string, err error) *Error {
	return &Error{Kind: KindMissingPage, Message: fmt.Sprintf("cannot read page %s", name), Err: err}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewRadioError creates a radio backend error
func NewRadioError(message string, err error) *Error {
	return &Error{Kind: KindRadio, Message: message, Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error. Timeouts, refused
// connections and DNS failures are told apart in the message.
func NewNetworkError(message string, err error) *Error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}

	detail := ""
	retryable := true
	var dnsErr *net.DNSError
	switch {
	case err == nil:
	case os.IsTimeout(err):
		detail = "timed out"
	case errors.As(err, &dnsErr):
		detail = fmt.Sprintf("cannot resolve %s", dnsErr.Name)
		retryable = false
	case errors.Is(err, syscall.ECONNREFUSED):
		detail = "connection refused"
	case errors.Is(err, syscall.EHOSTUNREACH):
		detail = "host unreachable"
	case errors.Is(err, syscall.ENETUNREACH):
		detail = "network unreachable"
	}
	if detail != "" {
		message = message + ": " + detail
	}

	return &Error{Kind: KindNetwork, Message: message, Err: err, Retryable: retryable}
}

// KindOf returns the Kind of err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsConnectTimeout reports whether err is a station connect timeout
func IsConnectTimeout(err error) bool {
	return err != nil && KindOf(err) == KindConnectTimeout
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

// IsNetwork reports whether err is a network error
func IsNetwork(err error) bool {
	return err != nil && KindOf(err) == KindNetwork
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// Hint returns user-facing troubleshooting advice for an error
func Hint(err error) []string {
	switch KindOf(err) {
	case KindConnectTimeout:
		return []string{
			"The device could not join the configured network within the connect window",
			"It has fallen back to the configuration portal",
			"Join the device's access point and submit the credentials again",
			"Check the SSID spelling and password (max 31 characters each)",
		}
	case KindNetwork:
		return []string{
			"Check that you are connected to the device's WiFi network",
			"The portal answers on the access point address (default 192.168.1.1)",
			"The device restarts after every change; wait a few seconds and retry",
		}
	case KindStorageRead, KindStorageWrite:
		return []string{
			"Check that the storage image path is writable",
			"Run 'wifiportal reset' to rewrite a fresh record",
		}
	case KindValidation:
		return []string{"Check the error message for the offending value"}
	case KindRadio:
		return []string{
			"Check that the wireless interface exists and is managed",
			"Use '--radio simulated' to run without a radio",
		}
	default:
		return nil
	}
}

// FormatErrors formats a slice of errors into a single user-friendly message.
func FormatErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(errs)))
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
