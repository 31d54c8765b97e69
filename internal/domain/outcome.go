package domain

// UpsertOutcome tells whether an idempotent write created or replaced a record
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "CREATED"
	OutcomeUpdated UpsertOutcome = "UPDATED"
)
