package engine

import "errors"

// Sentinel errors for the public operations. Callers match them with
// errors.Is to render results without inspecting message text.
var (
	// ErrNotFound indicates the target path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrParse indicates syntactically invalid source; planning and applying
	// are refused for files that do not parse.
	ErrParse = errors.New("source failed to parse")

	// ErrInvalidPlan indicates a nil, empty, or out-of-catalog plan.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrInvalidReport indicates planning was attempted without a usable
	// analysis report.
	ErrInvalidReport = errors.New("cannot plan without valid analysis")

	// ErrUnsupportedRegeneration indicates an insertion point could not be
	// computed for a qualifying function, so the mutated source cannot be
	// regenerated.
	ErrUnsupportedRegeneration = errors.New("cannot regenerate source")

	// ErrWriteDenied indicates the write policy vetoed the target path.
	ErrWriteDenied = errors.New("write denied by policy")
)
