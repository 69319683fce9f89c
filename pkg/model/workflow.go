package model

// WorkflowState is the lifecycle state of an observation (spec §4.7).
type WorkflowState string

const (
	WorkflowUndefined  WorkflowState = "undefined"
	WorkflowUnapproved WorkflowState = "unapproved"
	WorkflowDefined    WorkflowState = "defined"
	WorkflowInactive   WorkflowState = "inactive"
	WorkflowReady      WorkflowState = "ready"
	WorkflowOngoing    WorkflowState = "ongoing"
	WorkflowCompleted  WorkflowState = "completed"
)
