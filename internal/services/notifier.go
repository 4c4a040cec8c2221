package services

import (
	"context"
	"log/slog"

	"giaingan/internal/docstore"
)

// ChangePublisher broadcasts committed record changes to external consumers,
// typically the report worker over AMQP. A nil publisher disables fan-out;
// in-process docstore subscribers still fire.
type ChangePublisher interface {
	PublishRecordChange(ctx context.Context, collection, id string, op docstore.Op) error
}

// publishChange is best-effort: the store write already succeeded, so a
// broken broker must not fail the request.
func publishChange(ctx context.Context, pub ChangePublisher, collection, id string, op docstore.Op) {
	if pub == nil {
		return
	}
	if err := pub.PublishRecordChange(ctx, collection, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"collection", collection, "id", id, "op", op, "error", err)
	}
}
