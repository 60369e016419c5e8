package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/workpad/internal/model"
)

// ListProjects retrieves projects matching the filter, newest first.
func (s *RemoteStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	q := newestFirst()
	if filter.ClientID != nil {
		q.Eq("client_id", *filter.ClientID)
	}

	var rows []projectRow
	if err := s.client.Select(ctx, s.tables.Projects, q, &rows); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projectsFromRows(rows), nil
}

// GetProjectByID retrieves a single project by ID.
func (s *RemoteStore) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	var rows []projectRow
	if err := s.client.Select(ctx, s.tables.Projects, byID(id).Select("*"), &rows); err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	projects := projectsFromRows(rows)
	if len(projects) == 0 {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return &projects[0], nil
}

// CreateProject inserts a new project under its client.
func (s *RemoteStore) CreateProject(ctx context.Context, project model.Project) (*model.Project, error) {
	if strings.TrimSpace(project.Title) == "" {
		return nil, fmt.Errorf("project title must not be empty")
	}
	if project.ClientID == "" {
		return nil, fmt.Errorf("project must belong to a client")
	}

	body := projectInsert{
		projectPayload: newProjectPayload(project),
		ClientID:       project.ClientID,
	}
	var rows []projectRow
	if err := s.client.Insert(ctx, s.tables.Projects, body, &rows); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if created := projectsFromRows(rows); len(created) > 0 {
		return &created[0], nil
	}
	return &project, nil
}

// UpdateProject overwrites title, description, price, deadline and status.
// The owning client is never changed.
func (s *RemoteStore) UpdateProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Title) == "" {
		return fmt.Errorf("project title must not be empty")
	}
	err := s.client.Update(ctx, s.tables.Projects, byID(project.ID), newProjectPayload(project), nil)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", project.ID, err)
	}
	return nil
}

// DeleteProject removes a project.
func (s *RemoteStore) DeleteProject(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, s.tables.Projects, byID(id)); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return nil
}
