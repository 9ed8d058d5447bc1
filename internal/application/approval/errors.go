package approval

import "errors"

// Engine errors. All are local and synchronous; callers branch on them
// with errors.Is and map them to transport codes at the edge.
var (
	// ErrNotFound means the referenced expense, policy or step does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized means the approver is not in the open step's
	// eligible set. Never silently corrected.
	ErrNotAuthorized = errors.New("not authorized for current step")

	// ErrNoPendingStep means the expense has no open step: it is already
	// terminal, or no policy applies. Callers should treat it as a
	// stale-UI condition.
	ErrNoPendingStep = errors.New("no pending approval step")

	// ErrConflict means two writers raced on the same step transition.
	// The engine performs no automatic retry; callers re-submit.
	ErrConflict = errors.New("concurrent approval conflict")

	// ErrCollaboratorUnavailable means a Directory or store lookup
	// failed. The expense state is left unchanged.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)
