package mixer

import (
	"errors"
	"fmt"
)

// Kind tags a mix failure.
type Kind string

const (
	KindInvalidRequest           Kind = "InvalidRequest"
	KindInputNotFound            Kind = "InputNotFound"
	KindDecodeError              Kind = "DecodeError"
	KindEncodeError              Kind = "EncodeError"
	KindExportVerificationFailed Kind = "ExportVerificationFailed"
	KindMixFailed                Kind = "MixFailed"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrInvalidRequest           = errors.New("invalid mix request")
	ErrInputNotFound            = errors.New("input file not found")
	ErrDecode                   = errors.New("audio could not be decoded")
	ErrEncode                   = errors.New("audio could not be encoded")
	ErrExportVerificationFailed = errors.New("export reported success but output is missing or empty")
	ErrMixFailed                = errors.New("mix failed")
)

var sentinels = map[Kind]error{
	KindInvalidRequest:           ErrInvalidRequest,
	KindInputNotFound:            ErrInputNotFound,
	KindDecodeError:              ErrDecode,
	KindEncodeError:              ErrEncode,
	KindExportVerificationFailed: ErrExportVerificationFailed,
	KindMixFailed:                ErrMixFailed,
}

// Error is the failure half of a Result.
type Error struct {
	Kind Kind
	// Path names the offending file, when there is one.
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if s, ok := sentinels[e.Kind]; ok {
		msg += ": " + s.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && target == s
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func newErrorf(kind Kind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}
