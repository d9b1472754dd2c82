package result

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies how serious an AgentError is for grouping and display
// purposes. It does not itself control control-flow.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Category groups AgentError codes by the layer of the runtime that raised
// them. It is descriptive only: agent.Execute decides whether a failure is
// terminal or retried by where it arose (a validation-layer failure is
// retried, an iteration-loop failure is terminal), not by its Category.
type Category string

const (
	// CategoryModel covers protocol violations or transport failures
	// (API_ERROR, OUTPUT_TOOL_NOT_USED, SUBMIT_BEFORE_OUTPUT).
	CategoryModel Category = "model"
	// CategoryExecution covers resource/boundary failures
	// (MAX_ITERATIONS_EXCEEDED, EXECUTION_CANCELLED, STATE_PROJECTION_FAILED).
	CategoryExecution Category = "execution"
	// CategoryValidation covers validation-pipeline failures.
	CategoryValidation Category = "validation"
	// CategoryData covers malformed-input failures raised by tool handlers.
	CategoryData Category = "data"
	// CategorySpec covers agent-definition/spec misconfiguration failures.
	CategorySpec Category = "spec"
)

// Stable agent error code identifiers (spec.md §6/§7).
const (
	CodeAPIError              = "API_ERROR"
	CodeOutputToolNotUsed     = "OUTPUT_TOOL_NOT_USED"
	CodeMaxIterationsExceeded = "MAX_ITERATIONS_EXCEEDED"
	CodeSubmitBeforeOutput    = "SUBMIT_BEFORE_OUTPUT"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeExecutionCancelled    = "EXECUTION_CANCELLED"
	CodeStateProjectionFailed = "STATE_PROJECTION_FAILED"
	CodeMissingComponent      = "MISSING_COMPONENT"
	CodeNotArray              = "NOT_ARRAY"
	CodeInvalidAccessor       = "INVALID_ACCESSOR"
	CodeFieldRequired         = "FIELD_REQUIRED"
)

// AgentError is the structured error type returned by every fallible core
// operation. Context carries code-specific fields (e.g. "attempt",
// "iterationCount", "field") rather than being folded into Message, so
// callers that need to react programmatically do not have to parse text.
type AgentError struct {
	// Code is a stable machine-readable identifier (e.g. CodeAPIError).
	Code string
	// Severity classifies how serious the error is for display/grouping.
	Severity Severity
	// Category groups the error by runtime layer; see the Category* constants.
	Category Category
	// Message is the human-readable summary.
	Message string
	// Context carries structured, code-specific fields (attempt number,
	// field name, layer name, etc).
	Context map[string]any
	// Cause optionally wraps an underlying error (e.g. a transport error).
	Cause error
}

// New constructs an AgentError. Context may be nil.
func New(code string, severity Severity, category Category, message string, context map[string]any) *AgentError {
	return &AgentError{Code: code, Severity: severity, Category: category, Message: message, Context: context}
}

// WithCause attaches an underlying cause and returns e for chaining.
func (e *AgentError) WithCause(cause error) *AgentError {
	e.Cause = cause
	return e
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/errors.As against Cause.
func (e *AgentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// FormatErrors renders a set of AgentErrors to a model-facing markdown
// string. Errors are grouped by severity (fatal, error, warning, info, in
// that order), bullet-listed within each group, and annotated with an
// edit-distance field-name suggestion when the error's Context carries a
// "field" key and candidateFields is non-empty.
func FormatErrors(errs []*AgentError, candidateFields []string) string {
	if len(errs) == 0 {
		return ""
	}
	groups := map[Severity][]*AgentError{}
	for _, e := range errs {
		if e == nil {
			continue
		}
		groups[e.Severity] = append(groups[e.Severity], e)
	}
	order := []Severity{SeverityFatal, SeverityError, SeverityWarning, SeverityInfo}
	var b strings.Builder
	for _, sev := range order {
		group := groups[sev]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "**%s**\n", strings.ToUpper(string(sev)))
		for _, e := range group {
			line := fmt.Sprintf("- `%s`: %s", e.Code, e.Message)
			if field, ok := e.Context["field"].(string); ok && field != "" {
				if suggestion := nearestField(field, candidateFields); suggestion != "" {
					line += fmt.Sprintf(" (did you mean `%s`?)", suggestion)
				}
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// nearestField returns the candidate in candidates with the smallest
// Levenshtein edit distance to field, or "" if candidates is empty or no
// candidate is reasonably close (distance > half the field's length, rounded
// down, plus one).
func nearestField(field string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	type scored struct {
		name string
		dist int
	}
	scores := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		scores = append(scores, scored{name: c, dist: levenshtein(field, c)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })
	best := scores[0]
	maxDist := len(field)/2 + 1
	if best.dist > maxDist {
		return ""
	}
	return best.name
}

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
