package store

import "github.com/tgienger/taskboard/internal/models"

// WorkspaceState is the workspace list and the current selection
type WorkspaceState struct {
	Workspaces []models.Workspace `json:"workspaces"`
	Current    *models.Workspace  `json:"current,omitempty"`
}

// WorkspaceStore is the store type for WorkspaceState
type WorkspaceStore = Store[WorkspaceState]

// NewWorkspaceStore returns an empty workspace store
func NewWorkspaceStore() *WorkspaceStore {
	return New(WorkspaceState{})
}

// SetWorkspaces replaces the list. The first workspace becomes current only
// when nothing is selected yet; an existing selection is never overridden.
func SetWorkspaces(list []models.Workspace) Reducer[WorkspaceState] {
	return func(s WorkspaceState) WorkspaceState {
		s.Workspaces = append([]models.Workspace(nil), list...)
		if s.Current == nil && len(list) > 0 {
			first := list[0]
			s.Current = &first
		}
		return s
	}
}

// SetCurrent selects w, or clears the selection when w is nil
func SetCurrent(w *models.Workspace) Reducer[WorkspaceState] {
	return func(s WorkspaceState) WorkspaceState {
		if w == nil {
			s.Current = nil
			return s
		}
		cur := *w
		s.Current = &cur
		return s
	}
}

// AddWorkspace appends a newly created workspace and selects it
func AddWorkspace(w models.Workspace) Reducer[WorkspaceState] {
	return func(s WorkspaceState) WorkspaceState {
		list := make([]models.Workspace, 0, len(s.Workspaces)+1)
		list = append(list, s.Workspaces...)
		s.Workspaces = append(list, w)
		s.Current = &w
		return s
	}
}
