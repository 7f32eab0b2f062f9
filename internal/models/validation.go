package models

// ViolationKind enumerates the business rules a proposal can break.
type ViolationKind string

const (
	ViolationInvalidTimeRange      ViolationKind = "INVALID_TIME_RANGE"
	ViolationRoomConflict          ViolationKind = "ROOM_CONFLICT"
	ViolationInstructorConflict    ViolationKind = "INSTRUCTOR_CONFLICT"
	ViolationCapacity              ViolationKind = "CAPACITY_VIOLATION"
	ViolationInstructorNotAssigned ViolationKind = "INSTRUCTOR_NOT_ASSIGNED"
)

// Violation is one machine-readable reason a proposal was rejected.
// ConflictingScheduleID names the persisted row (or, for batch-internal
// conflicts, the earlier batch item) the proposal collides with.
type Violation struct {
	Kind                  ViolationKind `json:"kind"`
	Message               string        `json:"message"`
	ConflictingScheduleID string        `json:"conflicting_schedule_id,omitempty"`
}

// ValidationResult aggregates every violation found for a single proposal.
// Violations accumulate; rules are never short-circuited.
type ValidationResult struct {
	Accepted   bool        `json:"accepted"`
	Violations []Violation `json:"violations,omitempty"`
}

// Add appends violations and keeps Accepted consistent.
func (r *ValidationResult) Add(violations ...Violation) {
	r.Violations = append(r.Violations, violations...)
	r.Accepted = len(r.Violations) == 0
}

// BatchValidationResult holds per-item outcomes for a bulk proposal, in
// submission order. The batch is accepted only when every item is.
type BatchValidationResult struct {
	Accepted bool               `json:"accepted"`
	Items    []ValidationResult `json:"items"`
}

// ScheduleRejectedError is returned when validation rejects a proposal or a
// batch. It carries the full violation report for the caller.
type ScheduleRejectedError struct {
	Message string                 `json:"message"`
	Result  *ValidationResult      `json:"result,omitempty"`
	Batch   *BatchValidationResult `json:"batch,omitempty"`
}

// Error implements the error interface.
func (e *ScheduleRejectedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
