package services

import (
	"context"
	"errors"
	"testing"

	"giaingan/internal/core"
	"giaingan/internal/docstore"
)

func newTestProjectService() *ProjectService {
	return NewProjectService(docstore.NewMemory(), &core.SequenceIDGenerator{}, nil)
}

func TestProjectCRUD(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	created, err := svc.Create(ctx, core.Project{Name: "Khu đô thị Long Biên", Budget: 5_000_000_000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected store-assigned id")
	}

	created.Description = "giai đoạn 1"
	if err := svc.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "giai đoạn 1" || got.Budget.Float() != 5_000_000_000 {
		t.Fatalf("round trip: %+v", got)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectCreateRejectsBlankName(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	if _, err := svc.Create(ctx, core.Project{Name: "   "}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestMilestoneReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	project, err := svc.Create(ctx, core.Project{Name: "Cầu Nhật Tân 2"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, err := svc.AddMilestone(ctx, project.ID, core.Milestone{Name: "Hoàn thành móng"})
	if err != nil {
		t.Fatalf("add milestone: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected generated milestone id")
	}

	m.Done = true
	if err := svc.UpdateMilestone(ctx, project.ID, m); err != nil {
		t.Fatalf("update milestone: %v", err)
	}

	got, err := svc.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Milestones) != 1 || !got.Milestones[0].Done {
		t.Fatalf("milestones: %+v", got.Milestones)
	}

	if err := svc.RemoveMilestone(ctx, project.ID, m.ID); err != nil {
		t.Fatalf("remove milestone: %v", err)
	}
	got, err = svc.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Milestones) != 0 {
		t.Fatalf("milestones after remove: %+v", got.Milestones)
	}

	if err := svc.RemoveMilestone(ctx, project.ID, "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateFromTemplate(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	tpl, err := svc.CreateTemplate(ctx, core.ProjectTemplate{
		Name: "Nhà cao tầng",
		Phases: []core.Phase{
			{
				ID:    "tpl-phase",
				Name:  "Chuẩn bị đầu tư",
				Order: 1,
				Tasks: []core.ProjectTask{{ID: "tpl-task", Name: "Lập báo cáo khả thi"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	project, err := svc.CreateFromTemplate(ctx, core.Project{Name: "Tòa nhà A"}, tpl.ID)
	if err != nil {
		t.Fatalf("create from template: %v", err)
	}
	if len(project.Phases) != 1 {
		t.Fatalf("phases: %+v", project.Phases)
	}
	phase := project.Phases[0]
	if phase.Name != "Chuẩn bị đầu tư" || phase.Order != 1 {
		t.Fatalf("phase not copied: %+v", phase)
	}
	if phase.ID == "tpl-phase" {
		t.Fatal("phase id must be fresh, not the template's")
	}
	if len(phase.Tasks) != 1 || phase.Tasks[0].ID == "tpl-task" {
		t.Fatalf("task ids must be fresh: %+v", phase.Tasks)
	}
}

func TestTemplateCRUD(t *testing.T) {
	ctx := context.Background()
	svc := newTestProjectService()

	tpl, err := svc.CreateTemplate(ctx, core.ProjectTemplate{Name: "Hạ tầng kỹ thuật"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tpl.Description = "đường, điện, nước"
	if err := svc.UpdateTemplate(ctx, tpl); err != nil {
		t.Fatalf("update: %v", err)
	}

	all, err := svc.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Description != "đường, điện, nước" {
		t.Fatalf("templates: %+v", all)
	}

	if err := svc.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetTemplate(ctx, tpl.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGroupCRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewGroupService(docstore.NewMemory(), nil)

	created, err := svc.Create(ctx, core.Group{Name: "Đội giám sát", Members: []string{"u1", "u2"}, Leader: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Members = append(created.Members, "u3")
	if err := svc.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Members) != 3 || got.Leader != "u1" {
		t.Fatalf("round trip: %+v", got)
	}

	if _, err := svc.Create(ctx, core.Group{Name: ""}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}
