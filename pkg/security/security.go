// Package security provides validation, sanitization, and limits for the jobs package.
package security

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jdziat/simple-async-jobs/pkg/core"
)

// Security limits and configuration
const (
	// MaxJobNameLength is the maximum length for job names
	MaxJobNameLength = 255

	// MaxQueueNameLength is the maximum length for queue names
	MaxQueueNameLength = 255

	// MaxErrorMessageLength is the maximum length for journaled error messages
	MaxErrorMessageLength = 4096

	// Unlimited is the concurrency used when none is configured
	Unlimited = math.MaxInt
)

// validName matches alphanumeric, hyphens, underscores, and dots
var validName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-\.]*$`)

// ValidateJobName validates a job name. Job names are optional, so the empty
// name is accepted.
func ValidateJobName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > MaxJobNameLength {
		return core.ErrJobNameTooLong
	}
	if !validName.MatchString(name) {
		return core.ErrInvalidJobName
	}
	return nil
}

// ValidateQueueName validates a queue name
func ValidateQueueName(name string) error {
	if name == "" {
		return core.ErrInvalidQueueName
	}
	if len(name) > MaxQueueNameLength {
		return core.ErrQueueNameTooLong
	}
	if !validName.MatchString(name) {
		return core.ErrInvalidQueueName
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampConcurrency keeps concurrency non-negative. Zero is kept: a queue
// with zero concurrency never admits a job.
func ClampConcurrency(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ClampTimeout keeps a timeout non-negative; zero disables it.
func ClampTimeout(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
