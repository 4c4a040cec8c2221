package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"giaingan/internal/core"
	"giaingan/internal/docstore"
)

// DiscussService handles per-project discussion channels and their messages.
// Channels and messages live in subcollections under the owning project.
type DiscussService struct {
	store   docstore.Store
	changes ChangePublisher
	now     func() time.Time
}

func NewDiscussService(store docstore.Store, changes ChangePublisher) *DiscussService {
	return &DiscussService{store: store, changes: changes, now: time.Now}
}

// ListChannels returns a project's channels ordered by creation time.
func (s *DiscussService) ListChannels(ctx context.Context, projectID string) ([]core.Channel, error) {
	collection := docstore.Channels(projectID)
	recs, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out := make([]core.Channel, 0, len(recs))
	for _, rec := range recs {
		var c core.Channel
		if err := json.Unmarshal(rec.Data, &c); err != nil {
			return nil, fmt.Errorf("decode channel %s: %w", rec.ID, err)
		}
		c.ID = rec.ID
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *DiscussService) CreateChannel(ctx context.Context, projectID string, c core.Channel) (core.Channel, error) {
	if err := c.Validate(); err != nil {
		return core.Channel{}, err
	}
	c.ID = ""
	c.CreatedAt = s.now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(c)
	if err != nil {
		return core.Channel{}, fmt.Errorf("encode channel: %w", err)
	}
	collection := docstore.Channels(projectID)
	id, err := s.store.Create(ctx, collection, body)
	if err != nil {
		return core.Channel{}, fmt.Errorf("create channel: %w", err)
	}
	c.ID = id

	publishChange(ctx, s.changes, collection, id, docstore.OpCreate)
	return c, nil
}

func (s *DiscussService) DeleteChannel(ctx context.Context, projectID, channelID string) error {
	collection := docstore.Channels(projectID)
	if err := s.store.Delete(ctx, collection, channelID); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	publishChange(ctx, s.changes, collection, channelID, docstore.OpDelete)
	return nil
}

// ListMessages returns a channel's messages oldest first.
func (s *DiscussService) ListMessages(ctx context.Context, projectID, channelID string) ([]core.Message, error) {
	collection := docstore.Messages(projectID, channelID)
	recs, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]core.Message, 0, len(recs))
	for _, rec := range recs {
		var m core.Message
		if err := json.Unmarshal(rec.Data, &m); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", rec.ID, err)
		}
		m.ID = rec.ID
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// PostMessage appends a message with a server-assigned timestamp. Blank text
// is rejected before touching the store.
func (s *DiscussService) PostMessage(ctx context.Context, projectID, channelID string, m core.Message) (core.Message, error) {
	if err := m.Validate(); err != nil {
		return core.Message{}, err
	}
	m.ID = ""
	m.CreatedAt = s.now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(m)
	if err != nil {
		return core.Message{}, fmt.Errorf("encode message: %w", err)
	}
	collection := docstore.Messages(projectID, channelID)
	id, err := s.store.Create(ctx, collection, body)
	if err != nil {
		return core.Message{}, fmt.Errorf("create message: %w", err)
	}
	m.ID = id

	publishChange(ctx, s.changes, collection, id, docstore.OpCreate)
	return m, nil
}
