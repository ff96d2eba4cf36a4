package rule

// ValidationSeverity indicates how severe a lint finding is.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue describes a single problem found while linting a rule.
// Path points at the offending fragment using operator and index segments,
// e.g. "if[2].and[0]".
type ValidationIssue struct {
	Path     string             `json:"path"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

// ValidationResult aggregates the findings of a lint pass. Errors make the
// rule unusable; warnings flag constructs the visualizer tolerates but
// renders degraded.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// AddError appends an error-severity issue.
func (r *ValidationResult) AddError(path, code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		Path:     path,
		Code:     code,
		Message:  message,
		Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity issue.
func (r *ValidationResult) AddWarning(path, code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		Path:     path,
		Code:     code,
		Message:  message,
		Severity: SeverityWarning,
	})
}

// Valid reports whether the pass found no errors. Warnings do not affect
// validity.
func (r *ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Merge folds the issues of another result into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// IssueCount returns the total number of findings.
func (r *ValidationResult) IssueCount() int {
	return len(r.Errors) + len(r.Warnings)
}

// ToError converts an invalid result into a structured Error carrying the
// individual findings as details. Valid results return nil.
func (r *ValidationResult) ToError() error {
	if r.Valid() {
		return nil
	}
	return NewErrorf(ErrCodeValidation, "rule failed lint with %d error(s)", len(r.Errors)).
		WithDetail("errors", r.Errors).
		WithDetail("warnings", len(r.Warnings))
}
