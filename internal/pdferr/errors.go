// Package pdferr defines the typed error taxonomy used across the
// remediation pipeline, so callers can branch on failure kind with
// errors.As/errors.Is instead of matching error strings.
package pdferr

import "fmt"

// Kind identifies a class of pipeline failure.
type Kind int

const (
	// KindBadPdf covers parse failure, truncation, or an unrecognised
	// cross-reference table.
	KindBadPdf Kind = iota
	// KindEncrypted means an encryption dictionary is present without
	// credentials to open it.
	KindEncrypted
	// KindWriteError covers serialisation or I/O failure while saving.
	KindWriteError
	// KindDescriberFailure means a Describer call failed terminally.
	// Recovered locally by substituting fallback alt text; never
	// propagated past the orchestrator.
	KindDescriberFailure
	// KindOCRUnavailable means no OCR binding was configured. Recovered
	// locally by skipping OCR enrichment.
	KindOCRUnavailable
	// KindValidationTimeout means the validator subprocess exceeded its
	// wall-clock budget.
	KindValidationTimeout
	// KindValidatorNotInstalled means the configured validator binary
	// could not be located or executed.
	KindValidatorNotInstalled
	// KindStructuralConsistencyError is a programmer error: an internal
	// invariant (MCID count, tree/parent-tree agreement) was violated.
	// This should abort the run with a diagnostic dump.
	KindStructuralConsistencyError
)

func (k Kind) String() string {
	switch k {
	case KindBadPdf:
		return "BadPdf"
	case KindEncrypted:
		return "Encrypted"
	case KindWriteError:
		return "WriteError"
	case KindDescriberFailure:
		return "DescriberFailure"
	case KindOCRUnavailable:
		return "OcrUnavailable"
	case KindValidationTimeout:
		return "ValidationTimeout"
	case KindValidatorNotInstalled:
		return "ValidatorNotInstalled"
	case KindStructuralConsistencyError:
		return "StructuralConsistencyError"
	default:
		return "Unknown"
	}
}

// Error is a typed pipeline error carrying a Kind for programmatic dispatch
// and a wrapped cause for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, pdferr.New(pdferr.KindBadPdf, "")) — or read the
// Kind directly with KindOf.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if as(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// as is a tiny local alias to avoid importing errors in every caller that
// just wants KindOf; it mirrors errors.As for *Error specifically.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
