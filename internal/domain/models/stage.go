package models

// Stage identifies one of the four ordered manufacturing steps.
type Stage string

const (
	StageDoughMixing  Stage = "dough-mixing"
	StageFermentation Stage = "fermentation"
	StageBaking       Stage = "baking"
	StagePackaging    Stage = "packaging"
)

// CanonicalStages lists the stages in production order.
var CanonicalStages = []Stage{StageDoughMixing, StageFermentation, StageBaking, StagePackaging}

// Valid reports whether the stage is one of the four known steps.
func (s Stage) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of the stage in the canonical order, -1 when unknown.
func (s Stage) Rank() int {
	for i, stage := range CanonicalStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s in the canonical order. The second
// return value is false when s is the last stage or not a known stage.
func (s Stage) Next() (Stage, bool) {
	rank := s.Rank()
	if rank < 0 || rank >= len(CanonicalStages)-1 {
		return "", false
	}
	return CanonicalStages[rank+1], true
}

// Status tracks the lifecycle of a production order. Stage-named statuses
// mirror the stage currently open on the shop floor.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Stage returns the manufacturing stage the status mirrors, if it names one.
func (s Status) Stage() (Stage, bool) {
	stage := Stage(s)
	if stage.Valid() {
		return stage, true
	}
	return "", false
}

// Terminal reports whether the order left the active queue.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority orders the operator queue.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank maps the priority to its ordinal weight, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 2
	case PriorityHigh:
		return 1
	default:
		return 0
	}
}
