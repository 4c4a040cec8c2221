package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"giaingan/internal/core"
	"giaingan/internal/docstore"
)

func newTestDiscussService() *DiscussService {
	svc := NewDiscussService(docstore.NewMemory(), nil)
	tick := testNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc
}

func TestChannelsOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	svc := newTestDiscussService()

	for _, name := range []string{"Thông báo", "Trao đổi", "Họp giao ban"} {
		if _, err := svc.CreateChannel(ctx, "p1", core.Channel{Name: name, Type: core.ChannelChat}); err != nil {
			t.Fatalf("create channel %q: %v", name, err)
		}
	}

	channels, err := svc.ListChannels(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(channels) != 3 {
		t.Fatalf("channels = %d, want 3", len(channels))
	}
	if channels[0].Name != "Thông báo" || channels[2].Name != "Họp giao ban" {
		t.Fatalf("order: %+v", channels)
	}
	for _, c := range channels {
		if c.CreatedAt == "" {
			t.Fatalf("missing createdAt: %+v", c)
		}
	}
}

func TestChannelsAreScopedByProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestDiscussService()

	if _, err := svc.CreateChannel(ctx, "p1", core.Channel{Name: "Chung", Type: core.ChannelInfo}); err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := svc.ListChannels(ctx, "p2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("channels leaked across projects: %+v", other)
	}
}

func TestCreateChannelValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestDiscussService()

	if _, err := svc.CreateChannel(ctx, "p1", core.Channel{Name: "", Type: core.ChannelChat}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := svc.CreateChannel(ctx, "p1", core.Channel{Name: "x", Type: "video"}); !errors.Is(err, core.ErrInvalidChannel) {
		t.Fatalf("expected ErrInvalidChannel, got %v", err)
	}
}

func TestPostAndListMessages(t *testing.T) {
	ctx := context.Background()
	svc := newTestDiscussService()

	ch, err := svc.CreateChannel(ctx, "p1", core.Channel{Name: "Trao đổi", Type: core.ChannelChat})
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}

	first, err := svc.PostMessage(ctx, "p1", ch.ID, core.Message{UserID: "u1", Text: "Đã nộp hồ sơ thanh toán"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if first.CreatedAt == "" {
		t.Fatal("expected server timestamp")
	}
	if _, err := svc.PostMessage(ctx, "p1", ch.ID, core.Message{UserID: "u2", Text: "Đã nhận, đang kiểm tra"}); err != nil {
		t.Fatalf("post: %v", err)
	}

	msgs, err := svc.ListMessages(ctx, "p1", ch.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].UserID != "u1" || msgs[1].UserID != "u2" {
		t.Fatalf("messages: %+v", msgs)
	}
}

func TestPostMessageRejectsBlankText(t *testing.T) {
	ctx := context.Background()
	svc := newTestDiscussService()

	if _, err := svc.PostMessage(ctx, "p1", "c1", core.Message{UserID: "u1", Text: "  "}); !errors.Is(err, core.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestDeleteChannel(t *testing.T) {
	ctx := context.Background()
	svc := newTestDiscussService()

	ch, err := svc.CreateChannel(ctx, "p1", core.Channel{Name: "Tạm", Type: core.ChannelVoice})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteChannel(ctx, "p1", ch.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	channels, err := svc.ListChannels(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(channels) != 0 {
		t.Fatalf("channels after delete: %+v", channels)
	}
}
