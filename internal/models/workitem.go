package models

import "time"

// WorkItemStatus is the normalized submission status of a work item.
type WorkItemStatus string

const (
	StatusPublished WorkItemStatus = "PUBLISHED"
	StatusSubmitted WorkItemStatus = "SUBMITTED"
	StatusReturned  WorkItemStatus = "RETURNED"
	StatusLate      WorkItemStatus = "LATE"
	StatusDraft     WorkItemStatus = "DRAFT"
	StatusReclaimed WorkItemStatus = "RECLAIMED"
	StatusUnknown   WorkItemStatus = "UNKNOWN"
)

// NormalizeWorkItemStatus maps raw status strings from the work-item source to
// a WorkItemStatus. The source vocabulary is wider than ours (it distinguishes
// CREATED/NEW drafts, and names reclaimed items RECLAIMED_BY_STUDENT); anything
// unrecognized becomes Unknown rather than failing the sync.
func NormalizeWorkItemStatus(raw string) WorkItemStatus {
	switch raw {
	case "PUBLISHED":
		return StatusPublished
	case "TURNED_IN", "SUBMITTED":
		return StatusSubmitted
	case "RETURNED":
		return StatusReturned
	case "LATE":
		return StatusLate
	case "DRAFT", "CREATED", "NEW":
		return StatusDraft
	case "RECLAIMED_BY_STUDENT", "RECLAIMED":
		return StatusReclaimed
	default:
		return StatusUnknown
	}
}

// WorkItem is one due-dated task fetched from the work-item source.
type WorkItem struct {
	ID            string         `bson:"id" json:"id"`
	Title         string         `bson:"title" json:"title"`
	Category      string         `bson:"category" json:"category"`
	Due           *time.Time     `bson:"due,omitempty" json:"due,omitempty"`
	Status        WorkItemStatus `bson:"status" json:"status"`
	Notes         string         `bson:"notes,omitempty" json:"notes,omitempty"`
	OwningGroupID string         `bson:"owningGroupId,omitempty" json:"owning_group_id,omitempty"`
}
