package session

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/store"
)

// LoadWorkspaces fetches the user's workspaces. The first one becomes current
// when nothing was selected before.
func (c *Controller) LoadWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	list, err := c.backend.ListWorkspaces(ctx)
	if err != nil {
		return nil, c.fail("load workspaces", err, nil)
	}
	state := c.Workspaces.Update(store.SetWorkspaces(list))
	if state.Current != nil && c.Projects.Get().WorkspaceID != state.Current.ID {
		c.Projects.Update(store.ResetForWorkspace(state.Current.ID))
	}
	return list, nil
}

// SelectWorkspace switches to w and loads its projects. The project list is
// cleared before the request so nothing from the previous workspace shows.
func (c *Controller) SelectWorkspace(ctx context.Context, w models.Workspace) ([]models.Project, error) {
	c.Workspaces.Update(store.SetCurrent(&w))
	c.Projects.Update(store.ResetForWorkspace(w.ID))
	return c.LoadProjects(ctx)
}

// CreateWorkspace creates a workspace owned by the user and switches to it
func (c *Controller) CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	w, err := c.backend.CreateWorkspace(ctx, name)
	if err != nil {
		return nil, c.fail("create workspace", err, logrus.Fields{"name": name})
	}
	c.Workspaces.Update(store.AddWorkspace(*w))
	c.Projects.Update(store.ResetForWorkspace(w.ID))
	return w, nil
}

// Members lists the current workspace's members
func (c *Controller) Members(ctx context.Context) ([]models.WorkspaceMember, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return nil, err
	}
	members, err := c.backend.ListMembers(ctx, w.ID)
	if err != nil {
		return nil, c.fail("list members", err, logrus.Fields{"workspace": w.ID})
	}
	return members, nil
}

// AddMember adds a user to the current workspace by email and returns the
// refreshed member list
func (c *Controller) AddMember(ctx context.Context, email string) ([]models.WorkspaceMember, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if err := c.backend.AddMemberByEmail(ctx, w.ID, email); err != nil {
		return nil, c.fail("add member", err, logrus.Fields{"workspace": w.ID, "email": email})
	}
	return c.Members(ctx)
}

// RemoveMember removes a user from the current workspace
func (c *Controller) RemoveMember(ctx context.Context, userID string) error {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return err
	}
	if err := c.backend.RemoveMember(ctx, w.ID, userID); err != nil {
		return c.fail("remove member", err, logrus.Fields{"workspace": w.ID, "user": userID})
	}
	return nil
}

// SetMemberRole changes a member's role in the current workspace
func (c *Controller) SetMemberRole(ctx context.Context, userID string, role models.Role) error {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return err
	}
	if err := c.backend.UpdateMemberRole(ctx, w.ID, userID, role); err != nil {
		return c.fail("update member role", err, logrus.Fields{"workspace": w.ID, "user": userID})
	}
	return nil
}

// RecentActivity returns the newest comments in the current workspace
func (c *Controller) RecentActivity(ctx context.Context) ([]models.Comment, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return nil, err
	}
	comments, err := c.backend.RecentActivity(ctx, w.ID)
	if err != nil {
		return nil, c.fail("recent activity", err, logrus.Fields{"workspace": w.ID})
	}
	return comments, nil
}
