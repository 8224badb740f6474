package plugin

import "fmt"

// ErrorKind categorizes validation issues.
type ErrorKind string

const (
	ErrSyntax            ErrorKind = "syntax"
	ErrImport            ErrorKind = "import"
	ErrSecurityViolation ErrorKind = "security-violation"
	ErrMissingAttribute  ErrorKind = "missing-required-attribute"
	ErrInvalidSchema     ErrorKind = "invalid-schema"
	ErrNameConflict      ErrorKind = "name-conflict"
	ErrModelNotFound     ErrorKind = "model-not-found"
	ErrToolNotFound      ErrorKind = "tool-not-found"
	ErrStrict            ErrorKind = "strict"
)

// Issue is one validation error.
type Issue struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (i Issue) String() string { return fmt.Sprintf("[%s] %s", i.Kind, i.Message) }

// Outcome is the result of validating one descriptor. Valid is true
// exactly when Errors is empty.
type Outcome struct {
	Valid    bool     `json:"valid"`
	Errors   []Issue  `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     []string `json:"info"`
}

func (o *Outcome) errorf(kind ErrorKind, format string, args ...any) {
	o.Errors = append(o.Errors, Issue{Kind: kind, Message: fmt.Sprintf(format, args...)})
	o.Valid = false
}

func (o *Outcome) warnf(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

func (o *Outcome) infof(format string, args ...any) {
	o.Info = append(o.Info, fmt.Sprintf(format, args...))
}

// HasErrorKind reports whether any error has the given kind.
func (o Outcome) HasErrorKind(kind ErrorKind) bool {
	for _, e := range o.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Strict re-labels every warning as a strict error. Warnings are kept.
// Each warning yields one strict error, counting repeats; strict errors
// already present are matched against warnings by message first, so
// applying Strict twice yields the same outcome as applying it once.
func Strict(o Outcome) Outcome {
	out := Outcome{
		Errors:   append([]Issue(nil), o.Errors...),
		Warnings: append([]string(nil), o.Warnings...),
		Info:     append([]string(nil), o.Info...),
	}
	promoted := make(map[string]int)
	for _, e := range out.Errors {
		if e.Kind == ErrStrict {
			promoted[e.Message]++
		}
	}
	for _, w := range out.Warnings {
		if promoted[w] > 0 {
			promoted[w]--
			continue
		}
		out.Errors = append(out.Errors, Issue{Kind: ErrStrict, Message: w})
	}
	out.Valid = len(out.Errors) == 0
	return out
}
