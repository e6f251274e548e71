package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sellerbridge/marketsync/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrRowCapExceeded is returned mid-stream once the decoder crosses the
	// configured row cap.
	ErrRowCapExceeded = errors.New("row cap exceeded")

	// ErrRunInProgress is returned when an import for the same account and
	// record type is already running.
	ErrRunInProgress = errors.New("import already in progress for this account and record type")

	// ErrPurgeDryRun is returned when a purge is requested together with a
	// dry run; a dry run must not delete anything.
	ErrPurgeDryRun = errors.New("purge cannot be combined with dry run")
)

// FileIntakeError reports a failure before any row was read: bad size, bad
// encoding, structurally invalid input, or the row cap.
type FileIntakeError struct {
	Reason string
	Err    error
}

func (e *FileIntakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file intake failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("file intake failed: %s", e.Reason)
}

func (e *FileIntakeError) Unwrap() error { return e.Err }

// HeaderContractError reports that the declared record type's required
// columns are absent; processing stops before any row is validated.
type HeaderContractError struct {
	RecordType domain.RecordType
	Missing    []string
	Extra      []string
}

func (e *HeaderContractError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s export has no usable header", e.RecordType)
	}
	return fmt.Sprintf("%s export is missing required columns: %s",
		e.RecordType, strings.Join(e.Missing, ", "))
}

// RunFailureError reports an unexpected systemic failure that aborted the
// remaining run.
type RunFailureError struct {
	Stage string
	Err   error
}

func (e *RunFailureError) Error() string {
	return fmt.Sprintf("run failed during %s: %v", e.Stage, e.Err)
}

func (e *RunFailureError) Unwrap() error { return e.Err }
