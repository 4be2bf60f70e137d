package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one evaluation or generation run record.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Mode        string     `json:"mode"`
	OldDocument string     `json:"old_document,omitempty"`
	NewDocument string     `json:"new_document,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run modes.
const (
	ModeClassify     = "classify"
	ModeFullWorkflow = "full_workflow"
	ModeGenerate     = "generate"
)

// Run statuses. Failed runs carry the stage that halted them.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Artifact step constants for known artifact types.
const (
	StepOldDocumentText = "old_document_text"
	StepNewDocumentText = "new_document_text"
	StepComparison      = "comparison"
	StepGauge           = "gauge"
	StepClassification  = "classification"
	StepGeneration      = "generation"
	StepCostSummary     = "cost_summary"
	StepReport          = "report"
)
