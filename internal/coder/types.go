package coder

import "time"

// User is the subset of the Coder user object padws reads.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Workspace is the subset of the Coder workspace object padws reads.
type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerName   string `json:"owner_name"`
	LatestBuild Build  `json:"latest_build"`
}

// Build is a workspace build, Coder's unit of lifecycle transition.
type Build struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Transition string    `json:"transition"`
	CreatedAt  time.Time `json:"created_at"`
}

// State is the coarse workspace lifecycle state exposed to the
// frontend.
type State string

const (
	StateRunning  State = "running"
	StateStarting State = "starting"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
	StateError    State = "error"
	StateUnknown  State = "unknown"
)

// StateFromBuild maps a Coder build status to the coarse State.
func StateFromBuild(b Build) State {
	switch b.Status {
	case "running":
		return StateRunning
	case "pending", "starting":
		return StateStarting
	case "stopping", "canceling", "deleting":
		return StateStopping
	case "stopped", "canceled", "deleted":
		return StateStopped
	case "failed":
		return StateError
	default:
		return StateUnknown
	}
}

// createUserRequest is the payload for creating a Coder user.
type createUserRequest struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	LoginType      string `json:"login_type"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// createWorkspaceRequest is the payload for creating a workspace from
// a template.
type createWorkspaceRequest struct {
	Name       string `json:"name"`
	TemplateID string `json:"template_id"`
}

// buildRequest is the payload for a lifecycle transition.
type buildRequest struct {
	Transition string `json:"transition"`
}
