package stage

import "fmt"

// ItemError is scoped to a single opportunity or product. It is caught
// inside the stage loop: the owning entity has already been marked failed
// (or draft, for the listing fallback) and the loop continues.
type ItemError struct {
	Kind  string // "opportunity", "product", "candidate"
	ID    string
	Op    string
	Cause error
}

func (e *ItemError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.ID, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Op)
}

func (e *ItemError) Unwrap() error {
	return e.Cause
}

// StageError is scoped to one stage invocation, e.g. the repository being
// unreachable mid-stage. The cycle orchestrator catches it, records it,
// and still runs the remaining stages.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("stage %s failed", e.Stage)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}
