package services

import (
	"context"
	"encoding/json"
	"fmt"

	"giaingan/internal/core"
	"giaingan/internal/docstore"
)

// GroupService manages the working groups assigned to projects.
type GroupService struct {
	store   docstore.Store
	changes ChangePublisher
}

func NewGroupService(store docstore.Store, changes ChangePublisher) *GroupService {
	return &GroupService{store: store, changes: changes}
}

func (s *GroupService) List(ctx context.Context) ([]core.Group, error) {
	recs, err := s.store.List(ctx, docstore.Groups)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	out := make([]core.Group, 0, len(recs))
	for _, rec := range recs {
		var g core.Group
		if err := json.Unmarshal(rec.Data, &g); err != nil {
			return nil, fmt.Errorf("decode group %s: %w", rec.ID, err)
		}
		g.ID = rec.ID
		out = append(out, g)
	}
	return out, nil
}

func (s *GroupService) Get(ctx context.Context, id string) (core.Group, error) {
	rec, err := s.store.Get(ctx, docstore.Groups, id)
	if err != nil {
		return core.Group{}, fmt.Errorf("get group %s: %w", id, err)
	}
	var g core.Group
	if err := json.Unmarshal(rec.Data, &g); err != nil {
		return core.Group{}, fmt.Errorf("decode group %s: %w", id, err)
	}
	g.ID = rec.ID
	return g, nil
}

func (s *GroupService) Create(ctx context.Context, g core.Group) (core.Group, error) {
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}
	g.ID = ""
	body, err := json.Marshal(g)
	if err != nil {
		return core.Group{}, fmt.Errorf("encode group: %w", err)
	}
	id, err := s.store.Create(ctx, docstore.Groups, body)
	if err != nil {
		return core.Group{}, fmt.Errorf("create group: %w", err)
	}
	g.ID = id

	publishChange(ctx, s.changes, docstore.Groups, id, docstore.OpCreate)
	return g, nil
}

func (s *GroupService) Update(ctx context.Context, g core.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode group: %w", err)
	}
	if err := s.store.Update(ctx, docstore.Groups, g.ID, body); err != nil {
		return fmt.Errorf("update group %s: %w", g.ID, err)
	}
	publishChange(ctx, s.changes, docstore.Groups, g.ID, docstore.OpUpdate)
	return nil
}

func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, docstore.Groups, id); err != nil {
		return fmt.Errorf("delete group %s: %w", id, err)
	}
	publishChange(ctx, s.changes, docstore.Groups, id, docstore.OpDelete)
	return nil
}
