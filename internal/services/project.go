package services

import (
	"context"
	"encoding/json"
	"fmt"

	"giaingan/internal/core"
	"giaingan/internal/docstore"
)

// ProjectService owns the project aggregate and its reusable templates.
type ProjectService struct {
	store   docstore.Store
	ids     core.IDGenerator
	changes ChangePublisher
}

func NewProjectService(store docstore.Store, ids core.IDGenerator, changes ChangePublisher) *ProjectService {
	return &ProjectService{store: store, ids: ids, changes: changes}
}

func (s *ProjectService) List(ctx context.Context) ([]core.Project, error) {
	recs, err := s.store.List(ctx, docstore.Projects)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]core.Project, 0, len(recs))
	for _, rec := range recs {
		var p core.Project
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", rec.ID, err)
		}
		p.ID = rec.ID
		out = append(out, p)
	}
	return out, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (core.Project, error) {
	rec, err := s.store.Get(ctx, docstore.Projects, id)
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	var p core.Project
	if err := json.Unmarshal(rec.Data, &p); err != nil {
		return core.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.ID = rec.ID
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	p.ID = ""
	body, err := json.Marshal(p)
	if err != nil {
		return core.Project{}, fmt.Errorf("encode project: %w", err)
	}
	id, err := s.store.Create(ctx, docstore.Projects, body)
	if err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	p.ID = id

	publishChange(ctx, s.changes, docstore.Projects, id, docstore.OpCreate)
	return p, nil
}

// CreateFromTemplate instantiates a new project carrying the template's phase
// and task skeleton, with fresh ids for every copied element.
func (s *ProjectService) CreateFromTemplate(ctx context.Context, p core.Project, templateID string) (core.Project, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return core.Project{}, err
	}

	p.Phases = make([]core.Phase, len(tpl.Phases))
	for i, phase := range tpl.Phases {
		phase.ID = s.ids.NewID()
		tasks := make([]core.ProjectTask, len(phase.Tasks))
		for j, task := range phase.Tasks {
			task.ID = s.ids.NewID()
			tasks[j] = task
		}
		phase.Tasks = tasks
		p.Phases[i] = phase
	}
	return s.Create(ctx, p)
}

func (s *ProjectService) Update(ctx context.Context, p core.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := s.store.Update(ctx, docstore.Projects, p.ID, body); err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	publishChange(ctx, s.changes, docstore.Projects, p.ID, docstore.OpUpdate)
	return nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, docstore.Projects, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	publishChange(ctx, s.changes, docstore.Projects, id, docstore.OpDelete)
	return nil
}

// AddMilestone appends a milestone to the project document. Milestone edits
// are read-modify-write over the embedded array; the store has no partial
// update, so the whole document is rewritten.
func (s *ProjectService) AddMilestone(ctx context.Context, projectID string, m core.Milestone) (core.Milestone, error) {
	if m.Name == "" {
		return core.Milestone{}, core.ErrEmptyName
	}
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return core.Milestone{}, err
	}
	if m.ID == "" {
		m.ID = s.ids.NewID()
	}
	p.Milestones = append(p.Milestones, m)
	if err := s.Update(ctx, p); err != nil {
		return core.Milestone{}, err
	}
	return m, nil
}

func (s *ProjectService) UpdateMilestone(ctx context.Context, projectID string, m core.Milestone) error {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	for i, existing := range p.Milestones {
		if existing.ID == m.ID {
			p.Milestones[i] = m
			return s.Update(ctx, p)
		}
	}
	return fmt.Errorf("milestone %s: %w", m.ID, docstore.ErrNotFound)
}

func (s *ProjectService) RemoveMilestone(ctx context.Context, projectID, milestoneID string) error {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	kept := p.Milestones[:0]
	found := false
	for _, m := range p.Milestones {
		if m.ID == milestoneID {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return fmt.Errorf("milestone %s: %w", milestoneID, docstore.ErrNotFound)
	}
	p.Milestones = kept
	return s.Update(ctx, p)
}

func (s *ProjectService) ListTemplates(ctx context.Context) ([]core.ProjectTemplate, error) {
	recs, err := s.store.List(ctx, docstore.ProjectTemplates)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]core.ProjectTemplate, 0, len(recs))
	for _, rec := range recs {
		var t core.ProjectTemplate
		if err := json.Unmarshal(rec.Data, &t); err != nil {
			return nil, fmt.Errorf("decode template %s: %w", rec.ID, err)
		}
		t.ID = rec.ID
		out = append(out, t)
	}
	return out, nil
}

func (s *ProjectService) GetTemplate(ctx context.Context, id string) (core.ProjectTemplate, error) {
	rec, err := s.store.Get(ctx, docstore.ProjectTemplates, id)
	if err != nil {
		return core.ProjectTemplate{}, fmt.Errorf("get template %s: %w", id, err)
	}
	var t core.ProjectTemplate
	if err := json.Unmarshal(rec.Data, &t); err != nil {
		return core.ProjectTemplate{}, fmt.Errorf("decode template %s: %w", id, err)
	}
	t.ID = rec.ID
	return t, nil
}

func (s *ProjectService) CreateTemplate(ctx context.Context, t core.ProjectTemplate) (core.ProjectTemplate, error) {
	if err := t.Validate(); err != nil {
		return core.ProjectTemplate{}, err
	}
	t.ID = ""
	body, err := json.Marshal(t)
	if err != nil {
		return core.ProjectTemplate{}, fmt.Errorf("encode template: %w", err)
	}
	id, err := s.store.Create(ctx, docstore.ProjectTemplates, body)
	if err != nil {
		return core.ProjectTemplate{}, fmt.Errorf("create template: %w", err)
	}
	t.ID = id

	publishChange(ctx, s.changes, docstore.ProjectTemplates, id, docstore.OpCreate)
	return t, nil
}

func (s *ProjectService) UpdateTemplate(ctx context.Context, t core.ProjectTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	if err := s.store.Update(ctx, docstore.ProjectTemplates, t.ID, body); err != nil {
		return fmt.Errorf("update template %s: %w", t.ID, err)
	}
	publishChange(ctx, s.changes, docstore.ProjectTemplates, t.ID, docstore.OpUpdate)
	return nil
}

func (s *ProjectService) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, docstore.ProjectTemplates, id); err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	publishChange(ctx, s.changes, docstore.ProjectTemplates, id, docstore.OpDelete)
	return nil
}
