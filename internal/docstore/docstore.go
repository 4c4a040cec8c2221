// Package docstore is the document-store boundary of the service: named
// collections of JSON documents with store-assigned opaque ids and
// subscription-style change notification, the same contract the dashboard
// had against its hosted document database.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Top-level collection names, preserved from the original store.
const (
	Projects         = "projects"
	ProjectTemplates = "projects_template"
	Requests         = "disbursement_requests"
	Plans            = "disbursement_plans"
	PlansOnlyProject = "disbursement_plan_only_project"
	Groups           = "groups"
)

// Channels returns the per-project discussion subcollection name.
func Channels(projectID string) string {
	return fmt.Sprintf("%s/%s/discussions", Projects, projectID)
}

// Messages returns the per-channel message subcollection name.
func Messages(projectID, channelID string) string {
	return fmt.Sprintf("%s/%s/messages", Channels(projectID), channelID)
}

var ErrNotFound = errors.New("document not found")

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one committed mutation, delivered to subscribers of the
// affected collection.
type Event struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Op         Op     `json:"op"`
}

// Record is one stored document: an opaque id plus its raw JSON body.
type Record struct {
	ID   string
	Data []byte
}

// Store is the document-store port. Writes are last-write-wins; there is no
// versioning or optimistic concurrency. Subscribers are notified
// synchronously after a successful write.
type Store interface {
	List(ctx context.Context, collection string) ([]Record, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	Create(ctx context.Context, collection string, data []byte) (string, error)
	Update(ctx context.Context, collection, id string, data []byte) error
	Delete(ctx context.Context, collection, id string) error

	// Subscribe registers fn for change events on collection. The returned
	// function cancels the subscription.
	Subscribe(collection string, fn func(Event)) func()

	Close() error
}
