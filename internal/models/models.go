package models

import "time"

// Role is a member's role inside a workspace
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Workspace is the top-level grouping of projects and members
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	Role      *Role     `json:"role,omitempty"` // role of the current user, when known
	CreatedAt time.Time `json:"created_at"`
}

// Project groups tasks inside a workspace
type Project struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       Color     `json:"color"`
	Icon        *string   `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRef is the subset of a user joined onto other rows
type UserRef struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// DisplayName returns the full name, or a placeholder when unset
func (u UserRef) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return "Unnamed User"
}

// Task is a unit of work. A task with ParentID set is a subtask.
type Task struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	ProjectID   *string    `json:"project_id,omitempty"`
	ParentID    *string    `json:"parent_id,omitempty"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	CreatedBy   *string    `json:"created_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	ProjectName *string  `json:"project_name,omitempty"` // populated by joined reads
	Assignee    *UserRef `json:"assignee,omitempty"`     // populated by joined reads
}

// IsSubtask reports whether the task has a parent
func (t Task) IsSubtask() bool {
	return t.ParentID != nil
}

// AssignedTo reports whether the task is assigned to userID
func (t Task) AssignedTo(userID string) bool {
	return userID != "" && t.AssigneeID != nil && *t.AssigneeID == userID
}

// WorkspaceMember pairs a user with a workspace and a role
type WorkspaceMember struct {
	WorkspaceID string    `json:"workspace_id"`
	Role        Role      `json:"role"`
	User        UserRef   `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserProfile is the signed-in user's profile row
type UserProfile struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Title     *string `json:"title,omitempty"`
	Location  *string `json:"location,omitempty"`
	Website   *string `json:"website,omitempty"`
}

// Comment is a comment on a task
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	Author      *UserRef `json:"author,omitempty"`       // populated by joined reads
	TaskName    *string  `json:"task_name,omitempty"`    // populated by activity reads
	ProjectName *string  `json:"project_name,omitempty"` // populated by activity reads
}

// ProfilePatch holds profile fields to change; nil fields are left alone
type ProfilePatch struct {
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Title     *string `json:"title,omitempty"`
	Location  *string `json:"location,omitempty"`
	Website   *string `json:"website,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p ProfilePatch) IsEmpty() bool {
	return p == ProfilePatch{}
}

// Apply returns u with the patch applied
func (p ProfilePatch) Apply(u UserProfile) UserProfile {
	if p.FullName != nil {
		u.FullName = p.FullName
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Title != nil {
		u.Title = p.Title
	}
	if p.Location != nil {
		u.Location = p.Location
	}
	if p.Website != nil {
		u.Website = p.Website
	}
	return u
}
