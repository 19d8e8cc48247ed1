package store

import "github.com/tgienger/taskboard/internal/models"

// DialogMode is the state of the project dialog
type DialogMode int

const (
	DialogClosed DialogMode = iota
	DialogCreate
	DialogEdit
)

func (m DialogMode) String() string {
	switch m {
	case DialogCreate:
		return "create"
	case DialogEdit:
		return "edit"
	default:
		return "closed"
	}
}

// ProjectState is the project list of one workspace and the dialog state.
// Editing is set exactly when Dialog is DialogEdit.
type ProjectState struct {
	WorkspaceID string
	Projects    []models.Project
	Dialog      DialogMode
	Editing     *models.Project
}

// ProjectStore is the store type for ProjectState
type ProjectStore = Store[ProjectState]

// NewProjectStore returns an empty project store
func NewProjectStore() *ProjectStore {
	return New(ProjectState{})
}

// ResetForWorkspace drops the list and closes the dialog before another
// workspace's projects load
func ResetForWorkspace(workspaceID string) Reducer[ProjectState] {
	return func(ProjectState) ProjectState {
		return ProjectState{WorkspaceID: workspaceID}
	}
}

// SetProjects replaces the list with a fetched one. Results for a workspace
// other than the current one are ignored.
func SetProjects(workspaceID string, list []models.Project) Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		if workspaceID != s.WorkspaceID {
			return s
		}
		s.Projects = append([]models.Project(nil), list...)
		return s
	}
}

// AddProject prepends a created project
func AddProject(p models.Project) Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		if p.WorkspaceID != s.WorkspaceID {
			return s
		}
		list := make([]models.Project, 0, len(s.Projects)+1)
		list = append(list, p)
		s.Projects = append(list, s.Projects...)
		return s
	}
}

// ReplaceProject swaps in p for the project with the same id
func ReplaceProject(p models.Project) Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		i := s.index(p.ID)
		if i < 0 {
			return s
		}
		list := append([]models.Project(nil), s.Projects...)
		list[i] = p
		s.Projects = list
		if s.Editing != nil && s.Editing.ID == p.ID {
			editing := p
			s.Editing = &editing
		}
		return s
	}
}

// RemoveProject drops the project with the given id
func RemoveProject(id string) Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		i := s.index(id)
		if i < 0 {
			return s
		}
		list := make([]models.Project, 0, len(s.Projects)-1)
		list = append(list, s.Projects[:i]...)
		s.Projects = append(list, s.Projects[i+1:]...)
		return s
	}
}

// InsertProject puts p back at index i, clamped to the list bounds
func InsertProject(i int, p models.Project) Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		if p.WorkspaceID != s.WorkspaceID || s.index(p.ID) >= 0 {
			return s
		}
		if i < 0 {
			i = 0
		}
		if i > len(s.Projects) {
			i = len(s.Projects)
		}
		list := make([]models.Project, 0, len(s.Projects)+1)
		list = append(list, s.Projects[:i]...)
		list = append(list, p)
		s.Projects = append(list, s.Projects[i:]...)
		return s
	}
}

// OpenCreate opens the dialog for a new project
func OpenCreate() Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		s.Dialog = DialogCreate
		s.Editing = nil
		return s
	}
}

// OpenEdit opens the dialog for editing p
func OpenEdit(p models.Project) Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		s.Dialog = DialogEdit
		s.Editing = &p
		return s
	}
}

// CloseDialog closes the dialog after submit or cancel and clears the target
func CloseDialog() Reducer[ProjectState] {
	return func(s ProjectState) ProjectState {
		s.Dialog = DialogClosed
		s.Editing = nil
		return s
	}
}

// Find returns the project with the given id
func (s ProjectState) Find(id string) (models.Project, int, bool) {
	i := s.index(id)
	if i < 0 {
		return models.Project{}, -1, false
	}
	return s.Projects[i], i, true
}

func (s ProjectState) index(id string) int {
	for i, p := range s.Projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}
