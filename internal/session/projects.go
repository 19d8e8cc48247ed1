package session

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/logging"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/store"
)

// LoadProjects fetches the current workspace's projects into the store
func (c *Controller) LoadProjects(ctx context.Context) ([]models.Project, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return nil, err
	}
	if c.Projects.Get().WorkspaceID != w.ID {
		c.Projects.Update(store.ResetForWorkspace(w.ID))
	}

	list, err := c.backend.ListProjects(ctx, w.ID)
	if err != nil {
		return nil, c.fail("load projects", err, logrus.Fields{"workspace": w.ID})
	}
	c.Projects.Update(store.SetProjects(w.ID, list))
	return list, nil
}

// CreateProject creates a project in the current workspace. The store is
// updated from the backend's row, and the dialog closes.
func (c *Controller) CreateProject(ctx context.Context, in db.ProjectInput) (*models.Project, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return nil, err
	}
	if in.Name, err = cleanName(in.Name); err != nil {
		return nil, err
	}

	p, err := c.backend.CreateProject(ctx, w.ID, in)
	if err != nil {
		return nil, c.fail("create project", err, logrus.Fields{"workspace": w.ID})
	}
	c.Projects.Update(store.AddProject(*p), store.CloseDialog())
	return p, nil
}

// EditProject applies patch to the local copy right away, then saves it.
// If the save fails and no newer edit is in flight, the last saved version
// is put back.
func (c *Controller) EditProject(ctx context.Context, projectID string, patch db.ProjectPatch) error {
	if patch.Name != nil {
		name, err := cleanName(*patch.Name)
		if err != nil {
			return err
		}
		patch.Name = &name
	}

	current, _, ok := c.Projects.Get().Find(projectID)
	if !ok {
		return ErrUnknownProject
	}
	edited := patch.Apply(current)
	token := c.projectEdits.Begin(projectID, current)
	c.Projects.Update(store.ReplaceProject(edited), store.CloseDialog())

	if err := c.backend.UpdateProject(ctx, projectID, patch); err != nil {
		if prev, ok := c.projectEdits.Revert(projectID, token); ok {
			c.Projects.Update(store.ReplaceProject(prev))
		}
		return c.fail("edit project", err, logrus.Fields{"project": projectID})
	}
	// an older edit can land after the latest one failed and reverted
	if c.projectEdits.Settle(projectID, token, edited) {
		c.Projects.Update(store.ReplaceProject(edited))
	}
	return nil
}

// DeleteProject removes the project locally, then on the backend. A failed
// delete puts it back where it was.
func (c *Controller) DeleteProject(ctx context.Context, projectID string) error {
	p, index, ok := c.Projects.Get().Find(projectID)
	if !ok {
		return ErrUnknownProject
	}
	c.Projects.Update(store.RemoveProject(projectID))

	if err := c.backend.DeleteProject(ctx, projectID); err != nil {
		c.Projects.Update(store.InsertProject(index, p))
		return c.fail("delete project", err, logrus.Fields{"project": projectID})
	}

	if last := c.LastProject(); last == projectID {
		c.rememberProject("")
	}
	return nil
}

// LastProject returns the project opened most recently, if remembered
func (c *Controller) LastProject() string {
	if c.settings == nil {
		return ""
	}
	id, err := c.settings.LastProject()
	if err != nil {
		logging.Logger.WithError(err).Warn("failed to read last project")
		return ""
	}
	return id
}

// ForgetLastProject clears the remembered project so the next start opens
// the project list
func (c *Controller) ForgetLastProject() {
	c.rememberProject("")
}

func (c *Controller) rememberProject(id string) {
	if c.settings == nil {
		return
	}
	if err := c.settings.SetLastProject(id); err != nil {
		logging.Logger.WithError(err).WithField("project", id).Warn("failed to remember last project")
	}
}
