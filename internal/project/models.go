package project

import "time"

// Status of a procurement project. Transitions are enforced by Service.Transition.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusOpen       Status = "open"        // accepting bids
	StatusAwarded    Status = "awarded"     // contractor selected
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the closed edge set of the status machine.
// cancelled is reachable from every non-terminal status.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusOpen, StatusCancelled},
	StatusOpen:       {StatusAwarded, StatusCancelled},
	StatusAwarded:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusAwarded, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the edge from s to the target status is legal.
func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Project is a procurement project record. Kept minimal: status lifecycle only;
// bids, budgets, and progress reporting live outside this service.
type Project struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	ManagerID    string    `json:"managerId" db:"manager_id"`
	ContractorID string    `json:"contractorId,omitempty" db:"contractor_id"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
