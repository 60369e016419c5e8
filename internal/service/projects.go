package service

import (
	"context"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/store"
)

// CascadeOutcome says what happened to a project's invoices after it was
// saved.
type CascadeOutcome int

const (
	// CascadeSkipped means the new status was not Completed.
	CascadeSkipped CascadeOutcome = iota
	// CascadeApplied means every invoice of the project is now Paid.
	CascadeApplied
	// CascadeQueued means the remote call failed and the project was
	// queued for replay.
	CascadeQueued
	// CascadeFailed means the remote call failed and could not be queued.
	CascadeFailed
)

func (o CascadeOutcome) String() string {
	switch o {
	case CascadeApplied:
		return "applied"
	case CascadeQueued:
		return "queued"
	case CascadeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// ProjectUpdate is the result of UpdateProject.
type ProjectUpdate struct {
	Saved   bool
	Cascade CascadeOutcome
}

// ListProjects returns all projects, newest first.
func (s *Service) ListProjects(ctx context.Context) []model.Project {
	return s.listProjects(ctx, store.ProjectFilter{})
}

// ListProjectsByClient returns the projects of one client, newest first.
func (s *Service) ListProjectsByClient(ctx context.Context, clientID string) []model.Project {
	return s.listProjects(ctx, store.ProjectFilter{ClientID: &clientID})
}

func (s *Service) listProjects(ctx context.Context, f store.ProjectFilter) []model.Project {
	projects, err := s.store.ListProjects(ctx, f)
	if err != nil {
		attrs := []any{}
		if f.ClientID != nil {
			attrs = append(attrs, "client_id", *f.ClientID)
		}
		s.fail("list projects", err, attrs...)
		return []model.Project{}
	}
	return projects
}

// GetProject returns the project with id, or nil.
func (s *Service) GetProject(ctx context.Context, id string) *model.Project {
	p, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		s.fail("get project", err, "id", id)
		return nil
	}
	return p
}

// CreateProject inserts a project under in.ClientID. An empty status means
// Pending; a price that is not a number is refused.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) bool {
	p, err := projectFromInput(in, true)
	if err != nil {
		s.reject("create project", err)
		return false
	}

	created, err := s.store.CreateProject(ctx, p)
	if err != nil {
		s.fail("create project", err, "client_id", p.ClientID)
		return false
	}
	s.logger.Info("project created", "id", created.ID, "client_id", created.ClientID)
	return true
}

// UpdateProject overwrites the editable fields of project id. When the new
// status is Completed and the write succeeded, the project's invoices are
// marked Paid.
func (s *Service) UpdateProject(ctx context.Context, id string, in ProjectInput) ProjectUpdate {
	p, err := projectFromInput(in, false)
	if err != nil {
		s.reject("update project", err, "id", id)
		return ProjectUpdate{}
	}
	p.ID = id
	return s.saveProject(ctx, p)
}

// SetProjectStatus changes only the status of project id, keeping the
// rest of the record as currently stored.
func (s *Service) SetProjectStatus(ctx context.Context, id, status string) ProjectUpdate {
	if !model.IsProjectStatus(status) {
		s.reject("set project status", ValidationErrors{"status": "unknown status " + status}, "id", id)
		return ProjectUpdate{}
	}
	p, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		s.fail("set project status", err, "id", id)
		return ProjectUpdate{}
	}
	p.Status = status
	return s.saveProject(ctx, *p)
}

func (s *Service) saveProject(ctx context.Context, p model.Project) ProjectUpdate {
	if err := s.store.UpdateProject(ctx, p); err != nil {
		s.fail("update project", err, "id", p.ID)
		return ProjectUpdate{}
	}

	result := ProjectUpdate{Saved: true}
	if p.Status == model.ProjectStatusCompleted {
		result.Cascade = s.cascade(ctx, p.ID)
	}
	return result
}

func (s *Service) cascade(ctx context.Context, projectID string) CascadeOutcome {
	err := s.store.MarkInvoicesPaid(ctx, projectID)
	if err == nil {
		return CascadeApplied
	}
	s.fail("mark invoices paid", err, "project_id", projectID)

	if s.queue == nil {
		return CascadeFailed
	}
	if err := s.queue.Enqueue(ctx, projectID); err != nil {
		s.fail("queue cascade", err, "project_id", projectID)
		return CascadeFailed
	}
	s.logger.Info("cascade queued", "project_id", projectID)
	return CascadeQueued
}

// DeleteProject removes project id. Its invoices go with it through the
// store's cascade rules.
func (s *Service) DeleteProject(ctx context.Context, id string) bool {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		s.fail("delete project", err, "id", id)
		return false
	}
	return true
}
