package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConnection indicates the box could not be reached or the socket broke
	ErrTypeConnection ErrorType = iota
	// ErrTypeTimeout indicates the connect timeout elapsed
	ErrTypeTimeout
	// ErrTypeNotConnected indicates a send was attempted without a live socket
	ErrTypeNotConnected
	// ErrTypeProtocol indicates malformed framing or an unsendable token
	ErrTypeProtocol
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeNotConnected:
		return "Not Connected"
	case ErrTypeProtocol:
		return "Protocol Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// RemoteError represents an error that occurred talking to the box
type RemoteError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Addr    string    // host:port of the box (for context)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Addr != "" {
		msg += fmt.Sprintf(" [%s]", e.Addr)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a connection error
func NewConnectionError(addr, message string, err error) *RemoteError {
	return &RemoteError{Type: ErrTypeConnection, Message: message, Addr: addr, Err: err}
}

// NewTimeoutError creates a connect timeout error
func NewTimeoutError(addr, message string, err error) *RemoteError {
	return &RemoteError{Type: ErrTypeTimeout, Message: message, Addr: addr, Err: err}
}

// NewNotConnectedError creates the error returned by sends without a live socket
func NewNotConnectedError(addr string) *RemoteError {
	return &RemoteError{Type: ErrTypeNotConnected, Message: "no live connection (call Connect first)", Addr: addr}
}

// NewProtocolError creates a protocol error
func NewProtocolError(addr, message string, err error) *RemoteError {
	return &RemoteError{Type: ErrTypeProtocol, Message: message, Addr: addr, Err: err}
}

// ClassifyDialError turns a dial failure into a connection or timeout error
func ClassifyDialError(addr string, err error) *RemoteError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(addr, "connect timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(addr, "connect timed out", err)
	}

	return NewConnectionError(addr, "unable to connect", err)
}

// GetErrorType returns the type of a RemoteError anywhere in err's chain
func GetErrorType(err error) (ErrorType, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Type, true
	}
	return 0, false
}

// IsConnectionError reports whether err is a connection failure, including timeouts
func IsConnectionError(err error) bool {
	t, ok := GetErrorType(err)
	return ok && (t == ErrTypeConnection || t == ErrTypeTimeout)
}

// IsTimeout reports whether err is a connect timeout
func IsTimeout(err error) bool {
	t, ok := GetErrorType(err)
	return ok && t == ErrTypeTimeout
}

// IsNotConnected reports whether err was caused by a send without a live socket
func IsNotConnected(err error) bool {
	t, ok := GetErrorType(err)
	return ok && t == ErrTypeNotConnected
}

// IsProtocolError reports whether err is a framing or token error
func IsProtocolError(err error) bool {
	t, ok := GetErrorType(err)
	return ok && t == ErrTypeProtocol
}
