package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Kind classifies failures surfaced by the browser core.
type Kind int

const (
	KindIO Kind = iota
	KindPermissionDenied
	KindNotFound
	KindNotADirectory
	KindUnsupportedType
	KindParse
	KindTooLarge
)

var kindNames = [...]string{
	KindIO:               "io error",
	KindPermissionDenied: "permission denied",
	KindNotFound:         "not found",
	KindNotADirectory:    "not a directory",
	KindUnsupportedType:  "unsupported type",
	KindParse:            "parse error",
	KindTooLarge:         "too large",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsIO reports whether the kind belongs to the IO class.
func (k Kind) IsIO() bool {
	return k == KindIO || k == KindPermissionDenied || k == KindNotFound
}

// Sentinels usable with errors.Is. ErrIO matches every IO-class error.
var (
	ErrIO               = &Error{Kind: KindIO}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrNotADirectory    = &Error{Kind: KindNotADirectory}
	ErrUnsupportedType  = &Error{Kind: KindUnsupportedType}
	ErrParse            = &Error{Kind: KindParse}
	ErrTooLarge         = &Error{Kind: KindTooLarge}
)

// Error carries the kind of a failure together with the operation and path.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind. ErrIO matches permission and not-found errors too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Path != "" || t.Err != nil {
		return false
	}
	if t.Kind == KindIO {
		return e.Kind.IsIO()
	}
	return e.Kind == t.Kind
}

// NewError builds a typed error.
func NewError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of err, defaulting to KindIO for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// WrapIO classifies an os-level error into the IO class.
func WrapIO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, syscall.ENOTDIR):
		kind = KindNotADirectory
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
