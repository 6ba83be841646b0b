package faults

import (
	"errors"
	"fmt"
	"strings"
)

// error classes surfaced by the segmentation run
var (
	ErrFormat       = errors.New("format error")
	ErrNegativeTime = errors.New("negative time")
	ErrConfig       = errors.New("configuration error")
	ErrSourceRead   = errors.New("source read error")
	ErrSinkWrite    = errors.New("sink write error")
	ErrExtraction   = errors.New("extraction error")
)

// Wrap tags err with one of the markers above and prefixes the operation context.
// A nil marker is treated as ErrExtraction since external tools are the usual culprit.
func Wrap(marker error, operation, message string, err error) error {
	if marker == nil {
		marker = ErrExtraction
	}
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Errorf is Wrap without an underlying cause and with a formatted message.
func Errorf(marker error, operation, format string, args ...any) error {
	return Wrap(marker, operation, fmt.Sprintf(format, args...), nil)
}

// process exit code for an error class
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfig):
		return 2
	case errors.Is(err, ErrFormat), errors.Is(err, ErrSourceRead):
		return 3
	case errors.Is(err, ErrNegativeTime):
		return 4
	case errors.Is(err, ErrExtraction), errors.Is(err, ErrSinkWrite):
		return 5
	default:
		return 1
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
