package services

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// ErrNotFound marks failures caused by a file or directory that vanished.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied marks failures caused by filesystem permissions.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnsupportedFormat marks rating writes requested on a container
	// without writer support.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptMetadata marks an embedded metadata region that is present
	// but unparsable beyond repair.
	ErrCorruptMetadata = errors.New("corrupt metadata")
	// ErrWatchLost marks a filesystem watch subscription that failed
	// terminally. It is reported once and never retried automatically.
	ErrWatchLost = errors.New("watch subscription lost")
	// ErrValidation marks rejected caller input, such as an out-of-range
	// rating value.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a raw filesystem error onto the taxonomy so callers can
// distinguish permission problems from disappearance without inspecting
// platform error strings.
func Classify(component, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(ErrNotFound, component, operation, "", err)
	case errors.Is(err, fs.ErrPermission):
		return Wrap(ErrPermissionDenied, component, operation, "", err)
	default:
		return fmt.Errorf("%s: %s: %w", component, operation, err)
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
