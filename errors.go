// Copyright (c) 2025 Neomantra Corp

package alphastore

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable taxonomy of error categories a query or write
// can surface at its boundary. Callers should switch on Kind, not on
// error string content.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidArgument
	KindStorageUnavailable
	KindStorageBusy
	KindSchemaMismatch
	KindManifestMissing
	KindManifestCorrupt
	KindIntegrityViolation
	KindNoUnderlying
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindStorageBusy:
		return "StorageBusy"
	case KindSchemaMismatch:
		return "SchemaMismatch"
	case KindManifestMissing:
		return "ManifestMissing"
	case KindManifestCorrupt:
		return "ManifestCorrupt"
	case KindIntegrityViolation:
		return "IntegrityViolation"
	case KindNoUnderlying:
		return "NoUnderlying"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Sentinels for use with errors.Is; a StoreError matches the one for its
// Kind (and unwraps to its cause, if any) so callers can either match
// the sentinel or read Kind() off the wrapper.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageBusy        = errors.New("storage busy")
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrManifestMissing    = errors.New("manifest missing")
	ErrManifestCorrupt    = errors.New("manifest corrupt")
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrNoUnderlying       = errors.New("no underlying price at instant")
	ErrCancelled          = errors.New("cancelled")
)

var sentinelForKind = map[ErrorKind]error{
	KindInvalidArgument:    ErrInvalidArgument,
	KindStorageUnavailable: ErrStorageUnavailable,
	KindStorageBusy:        ErrStorageBusy,
	KindSchemaMismatch:     ErrSchemaMismatch,
	KindManifestMissing:    ErrManifestMissing,
	KindManifestCorrupt:    ErrManifestCorrupt,
	KindIntegrityViolation: ErrIntegrityViolation,
	KindNoUnderlying:       ErrNoUnderlying,
	KindCancelled:          ErrCancelled,
}

// StoreError is the concrete error type returned at every query and
// write boundary. It carries a stable Kind plus a human-readable
// message and, where relevant, the underlying cause.
type StoreError struct {
	kind    ErrorKind
	message string
	cause   error
}

func NewStoreError(kind ErrorKind, message string) *StoreError {
	return &StoreError{kind: kind, message: message}
}

func WrapStoreError(kind ErrorKind, message string, cause error) *StoreError {
	return &StoreError{kind: kind, message: message, cause: cause}
}

func (e *StoreError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.message, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *StoreError) Kind() ErrorKind {
	return e.kind
}

func (e *StoreError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return sentinelForKind[e.kind]
}

// Is matches the sentinel for e's Kind, so errors.Is finds it even when
// Unwrap returns an underlying cause.
func (e *StoreError) Is(target error) bool {
	return target == sentinelForKind[e.kind]
}

// KindOf extracts the ErrorKind from err, walking Unwrap chains. It
// returns KindUnknown for any error not produced by this package.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.kind
	}
	for kind, sentinel := range sentinelForKind {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

func invalidArgumentf(format string, args ...any) error {
	return NewStoreError(KindInvalidArgument, fmt.Sprintf(format, args...))
}
