// Package status holds the outcome of classification and validation steps.
//
// A Status is an ordered list of entries, each with a severity and a message.
// Problems a user can act on are reported as entries so that every problem of
// a batch can be shown at once; only cancellation, model-access failures and
// invariant violations during change building surface as Go errors.
package status

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCancelled indicates the user declined a confirmation or cancelled the operation.
	ErrCancelled = errors.New("operation cancelled")

	// ErrModelAccess indicates a query against the program model failed.
	ErrModelAccess = errors.New("model access failed")

	// ErrInvariant indicates an internal consistency check failed while building changes.
	ErrInvariant = errors.New("invariant violated")
)

// Severity orders status entries. The zero value is SeverityOK.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = map[Severity]string{
	SeverityOK:      "ok",
	SeverityInfo:    "info",
	SeverityWarning: "warning",
	SeverityError:   "error",
	SeverityFatal:   "fatal",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ParseSeverity parses a severity name as produced by String.
func ParseSeverity(name string) (Severity, error) {
	for s, n := range severityNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Entry is a single status message. Code is a stable message key.
type Entry struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Status is an ordered collection of entries.
type Status struct {
	entries []Entry
}

// New returns an empty status.
func New() *Status {
	return &Status{}
}

// Fatal returns a status holding a single fatal entry.
func Fatal(code, format string, args ...any) *Status {
	s := New()
	s.AddFatal(code, format, args...)
	return s
}

// FromError converts a model-access failure into a fatal status.
func FromError(err error) *Status {
	return Fatal("model.access", "%v", err)
}

func (s *Status) add(sev Severity, code, format string, args ...any) {
	s.entries = append(s.entries, Entry{Severity: sev, Code: code, Message: fmt.Sprintf(format, args...)})
}

// AddInfo appends an informational entry.
func (s *Status) AddInfo(code, format string, args ...any) {
	s.add(SeverityInfo, code, format, args...)
}

// AddWarning appends a warning.
func (s *Status) AddWarning(code, format string, args ...any) {
	s.add(SeverityWarning, code, format, args...)
}

// AddError appends an error.
func (s *Status) AddError(code, format string, args ...any) {
	s.add(SeverityError, code, format, args...)
}

// AddFatal appends a fatal entry.
func (s *Status) AddFatal(code, format string, args ...any) {
	s.add(SeverityFatal, code, format, args...)
}

// Merge appends all entries of other.
func (s *Status) Merge(other *Status) {
	if other == nil {
		return
	}
	s.entries = append(s.entries, other.entries...)
}

// Entries returns a copy of the entries in insertion order.
func (s *Status) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Severity returns the highest severity of all entries.
func (s *Status) Severity() Severity {
	highest := SeverityOK
	for _, e := range s.entries {
		if e.Severity > highest {
			highest = e.Severity
		}
	}
	return highest
}

// IsOK reports whether the status holds no entries above SeverityInfo.
func (s *Status) IsOK() bool {
	return s.Severity() <= SeverityInfo
}

// HasFatal reports whether the status holds a fatal entry.
func (s *Status) HasFatal() bool {
	return s.Severity() == SeverityFatal
}

// FirstFatal returns the first fatal entry, if any.
func (s *Status) FirstFatal() (Entry, bool) {
	for _, e := range s.entries {
		if e.Severity == SeverityFatal {
			return e, true
		}
	}
	return Entry{}, false
}

// HasCode reports whether an entry with the given code exists.
func (s *Status) HasCode(code string) bool {
	for _, e := range s.entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Err returns nil unless the status holds a fatal entry.
func (s *Status) Err() error {
	e, ok := s.FirstFatal()
	if !ok {
		return nil
	}
	return fmt.Errorf("%s: %s", e.Code, e.Message)
}

func (s *Status) String() string {
	if len(s.entries) == 0 {
		return "ok"
	}
	var b strings.Builder
	for i, e := range s.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s", e.Severity, e.Message)
	}
	return b.String()
}

// Cancelled wraps a context error as a cancellation.
func Cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
