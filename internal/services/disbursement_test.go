package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"giaingan/internal/core"
	"giaingan/internal/docstore"
)

var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []docstore.Event
	err    error
}

func (p *recordingPublisher) PublishRecordChange(_ context.Context, collection, id string, op docstore.Op) error {
	p.events = append(p.events, docstore.Event{Collection: collection, ID: id, Op: op})
	return p.err
}

func newTestDisbursementService(pub ChangePublisher) *DisbursementService {
	s := NewDisbursementService(docstore.NewMemory(), &core.SequenceIDGenerator{}, pub)
	s.now = func() time.Time { return testNow }
	return s
}

func testRequest(project, period string) core.DisbursementRequest {
	return core.DisbursementRequest{
		Code:      "DN-2025-001",
		ProjectID: project,
		Period:    period,
		Items: []core.DisbursementItem{
			{ID: "i1", Description: "Thi công phần thô", Amount: 1000, TaxRate: 10},
		},
		CompletionPct: 100,
	}
}

func TestCreateRequestDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	created, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03-20"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected store-assigned id")
	}
	if created.Status != core.StatusDraft {
		t.Fatalf("status = %s, want DRAFT", created.Status)
	}
	if created.Period != "2025-03" {
		t.Fatalf("period = %s, want 2025-03", created.Period)
	}
	if created.CreatedAt == "" {
		t.Fatal("expected createdAt to be set")
	}

	got, err := svc.GetRequest(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "DN-2025-001" || got.Period != "2025-03" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateRequestRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	r := testRequest("p1", "2025-03")
	r.Code = ""
	if _, err := svc.CreateRequest(ctx, r); !errors.Is(err, core.ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}

	r = testRequest("", "2025-03")
	if _, err := svc.CreateRequest(ctx, r); !errors.Is(err, core.ErrEmptyProjectID) {
		t.Fatalf("expected ErrEmptyProjectID, got %v", err)
	}
}

func TestUpdateRequestKeepsLifecycleFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	created, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(ctx, created.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	edited := created
	edited.Note = "bổ sung hồ sơ"
	edited.Status = core.StatusPaid // must be ignored
	if err := svc.UpdateRequest(ctx, edited); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.GetRequest(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != core.StatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", got.Status)
	}
	if got.Note != "bổ sung hồ sơ" {
		t.Fatalf("note = %q", got.Note)
	}
	if got.SubmittedAt == "" {
		t.Fatal("submittedAt lost on update")
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	created, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	steps := []func(context.Context, string) (core.DisbursementRequest, error){
		svc.Submit, svc.BeginApproval, svc.Approve, svc.OrderPayment, svc.MarkPaid,
	}
	want := []core.Status{
		core.StatusSubmitted, core.StatusApproving, core.StatusApproved,
		core.StatusPaymentOrdered, core.StatusPaid,
	}
	for i, step := range steps {
		got, err := step(ctx, created.ID)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Status != want[i] {
			t.Fatalf("step %d: status = %s, want %s", i, got.Status, want[i])
		}
	}
}

func TestLifecycleRejectsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	created, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Approve(ctx, created.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("draft approve: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Submit(ctx, created.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Reject(ctx, created.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Submit(ctx, created.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("rejected is terminal, got %v", err)
	}
}

func TestNeedInfoRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	created, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(ctx, created.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.RequestInfo(ctx, created.ID); err != nil {
		t.Fatalf("request info: %v", err)
	}
	got, err := svc.Submit(ctx, created.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got.Status != core.StatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", got.Status)
	}
}

func TestDeleteRequestAtAnyStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	created, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(ctx, created.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.DeleteRequest(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetRequest(ctx, created.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSavePlanDedupsAndCreates(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	plan := core.DisbursementPlan{
		ID:        "synthesized-id",
		ProjectID: "p1",
		Items: []core.PlanItem{
			{ID: "a", Period: "2025-01", PlannedAmount: 100},
			{ID: "b", Period: "2025-01-20", PlannedAmount: 200}, // same month, dropped
			{ID: "c", Period: "2025-02", PlannedAmount: 300},
		},
	}

	saved, err := svc.SavePlan(ctx, plan, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" || saved.ID == "synthesized-id" {
		t.Fatalf("expected fresh store id, got %q", saved.ID)
	}
	if len(saved.Items) != 2 {
		t.Fatalf("items = %d, want 2 after dedup", len(saved.Items))
	}
	if saved.Items[0].ID != "a" || saved.Items[0].PlannedAmount != 100 {
		t.Fatalf("first occurrence must win: %+v", saved.Items[0])
	}

	saved.Items[0].PlannedAmount = 150
	again, err := svc.SavePlan(ctx, saved, false)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if again.ID != saved.ID {
		t.Fatalf("resave must update in place, got id %q", again.ID)
	}

	plans, err := svc.ListPlans(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("plans = %d, want 1", len(plans))
	}
	if plans[0].Items[0].PlannedAmount.Float() != 150 {
		t.Fatalf("update not persisted: %+v", plans[0].Items[0])
	}
}

func TestPlanVariantsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	plan := core.DisbursementPlan{ProjectID: "p1", Items: []core.PlanItem{{ID: "a", Period: "2025-01"}}}
	if _, err := svc.SavePlan(ctx, plan, true); err != nil {
		t.Fatalf("save only-project plan: %v", err)
	}

	fleet, err := svc.ListPlans(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(fleet) != 0 {
		t.Fatalf("only-project plan leaked into fleet collection: %+v", fleet)
	}
}

func TestEffectivePlanPrefersPersisted(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	stored := core.DisbursementPlan{
		ProjectID: "p1",
		Items:     []core.PlanItem{{ID: "a", Period: "2025-01", PlannedAmount: 500}},
	}
	saved, err := svc.SavePlan(ctx, stored, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	plan, err := svc.EffectivePlan(ctx, "p1", false)
	if err != nil {
		t.Fatalf("effective plan: %v", err)
	}
	if plan == nil || plan.ID != saved.ID {
		t.Fatalf("expected persisted plan, got %+v", plan)
	}
}

func TestEffectivePlanFromRequests(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	if _, err := svc.CreateRequest(ctx, testRequest("p1", "2025-04")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateRequest(ctx, testRequest("p1", "2025-02")); err != nil {
		t.Fatalf("create: %v", err)
	}

	plan, err := svc.EffectivePlan(ctx, "p1", false)
	if err != nil {
		t.Fatalf("effective plan: %v", err)
	}
	if plan == nil {
		t.Fatal("expected synthesized plan")
	}
	if len(plan.Items) != 2 || plan.Items[0].Period != "2025-02" || plan.Items[1].Period != "2025-04" {
		t.Fatalf("items: %+v", plan.Items)
	}
	for _, it := range plan.Items {
		if it.PlannedAmount != 0 {
			t.Fatalf("synthesized amounts must be zero: %+v", it)
		}
	}
}

func TestEffectivePlanMissingProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	plan, err := svc.EffectivePlan(ctx, "", false)
	if err != nil {
		t.Fatalf("effective plan: %v", err)
	}
	if plan != nil {
		t.Fatalf("expected nil plan, got %+v", plan)
	}
}

func TestActualByPeriodExcludesRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	kept, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = kept

	rejected, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(ctx, rejected.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Reject(ctx, rejected.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	actual, err := svc.ActualByPeriod(ctx, "p1")
	if err != nil {
		t.Fatalf("actual: %v", err)
	}
	// One kept request: 1000 + 10% tax, full completion.
	if got := actual["2025-03"]; got != 1100 {
		t.Fatalf("actual[2025-03] = %v, want 1100", got)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	svc := newTestDisbursementService(nil)

	plan := core.DisbursementPlan{
		ProjectID: "p1",
		Items:     []core.PlanItem{{ID: "a", Period: "2025-03", PlannedAmount: 2200}},
	}
	if _, err := svc.SavePlan(ctx, plan, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03")); err != nil {
		t.Fatalf("create: %v", err)
	}

	summary, err := svc.Summary(ctx, "p1", false)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalPlanned != 2200 || summary.TotalActual != 1100 {
		t.Fatalf("totals: %+v", summary)
	}
	if summary.Pct != 50 {
		t.Fatalf("pct = %v, want 50", summary.Pct)
	}
}

func TestMutationsPublishChanges(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newTestDisbursementService(pub)

	created, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Submit(ctx, created.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.DeleteRequest(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []docstore.Op{docstore.OpCreate, docstore.OpUpdate, docstore.OpDelete}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %d, want %d", len(pub.events), len(want))
	}
	for i, ev := range pub.events {
		if ev.Op != want[i] || ev.Collection != docstore.Requests {
			t.Fatalf("event %d: %+v", i, ev)
		}
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestDisbursementService(pub)

	if _, err := svc.CreateRequest(ctx, testRequest("p1", "2025-03")); err != nil {
		t.Fatalf("create must not fail on publish error: %v", err)
	}
}
