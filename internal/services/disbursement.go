package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"giaingan/internal/core"
	"giaingan/internal/docstore"
)

// DisbursementService orchestrates disbursement requests and plans over the
// document store and fans mutations out to the change publisher.
type DisbursementService struct {
	store   docstore.Store
	ids     core.IDGenerator
	changes ChangePublisher
	now     func() time.Time
}

func NewDisbursementService(store docstore.Store, ids core.IDGenerator, changes ChangePublisher) *DisbursementService {
	return &DisbursementService{
		store:   store,
		ids:     ids,
		changes: changes,
		now:     time.Now,
	}
}

func (s *DisbursementService) ListRequests(ctx context.Context) ([]core.DisbursementRequest, error) {
	recs, err := s.store.List(ctx, docstore.Requests)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	out := make([]core.DisbursementRequest, 0, len(recs))
	for _, rec := range recs {
		var r core.DisbursementRequest
		if err := json.Unmarshal(rec.Data, &r); err != nil {
			return nil, fmt.Errorf("decode request %s: %w", rec.ID, err)
		}
		r.ID = rec.ID
		out = append(out, r)
	}
	return out, nil
}

// ListProjectRequests returns the requests of a single project, in store
// order.
func (s *DisbursementService) ListProjectRequests(ctx context.Context, projectID string) ([]core.DisbursementRequest, error) {
	all, err := s.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.DisbursementRequest, 0, len(all))
	for _, r := range all {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *DisbursementService) GetRequest(ctx context.Context, id string) (core.DisbursementRequest, error) {
	rec, err := s.store.Get(ctx, docstore.Requests, id)
	if err != nil {
		return core.DisbursementRequest{}, fmt.Errorf("get request %s: %w", id, err)
	}
	var r core.DisbursementRequest
	if err := json.Unmarshal(rec.Data, &r); err != nil {
		return core.DisbursementRequest{}, fmt.Errorf("decode request %s: %w", id, err)
	}
	r.ID = rec.ID
	return r, nil
}

// CreateRequest validates and stores a new request. New requests start as
// drafts unless a valid status is supplied, and their period is normalized on
// the way in.
func (s *DisbursementService) CreateRequest(ctx context.Context, r core.DisbursementRequest) (core.DisbursementRequest, error) {
	if err := r.Validate(); err != nil {
		return core.DisbursementRequest{}, err
	}

	if r.Status == "" {
		r.Status = core.StatusDraft
	}
	r.Period = core.NormalizePeriodAt(s.now(), r.Period)
	r.CreatedAt = s.now().UTC().Format(time.RFC3339)
	r.ID = ""

	body, err := json.Marshal(r)
	if err != nil {
		return core.DisbursementRequest{}, fmt.Errorf("encode request: %w", err)
	}
	id, err := s.store.Create(ctx, docstore.Requests, body)
	if err != nil {
		return core.DisbursementRequest{}, fmt.Errorf("create request: %w", err)
	}
	r.ID = id

	publishChange(ctx, s.changes, docstore.Requests, id, docstore.OpCreate)
	return r, nil
}

// UpdateRequest replaces the stored request body. The status is carried over
// unchanged; lifecycle moves go through Transition.
func (s *DisbursementService) UpdateRequest(ctx context.Context, r core.DisbursementRequest) error {
	if err := r.Validate(); err != nil {
		return err
	}
	current, err := s.GetRequest(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Status = current.Status
	r.SubmittedAt = current.SubmittedAt
	r.CreatedAt = current.CreatedAt
	r.Period = core.NormalizePeriodAt(s.now(), r.Period)

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := s.store.Update(ctx, docstore.Requests, r.ID, body); err != nil {
		return fmt.Errorf("update request %s: %w", r.ID, err)
	}

	publishChange(ctx, s.changes, docstore.Requests, r.ID, docstore.OpUpdate)
	return nil
}

// DeleteRequest removes a request regardless of its lifecycle state.
func (s *DisbursementService) DeleteRequest(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, docstore.Requests, id); err != nil {
		return fmt.Errorf("delete request %s: %w", id, err)
	}
	publishChange(ctx, s.changes, docstore.Requests, id, docstore.OpDelete)
	return nil
}

// Transition moves a request to next if the lifecycle permits it, recording
// the submission timestamp on the move into SUBMITTED.
func (s *DisbursementService) Transition(ctx context.Context, id string, next core.Status) (core.DisbursementRequest, error) {
	r, err := s.GetRequest(ctx, id)
	if err != nil {
		return core.DisbursementRequest{}, err
	}
	if !r.Status.CanTransition(next) {
		return core.DisbursementRequest{}, fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, r.Status, next)
	}

	r.Status = next
	if next == core.StatusSubmitted {
		r.SubmittedAt = s.now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(r)
	if err != nil {
		return core.DisbursementRequest{}, fmt.Errorf("encode request: %w", err)
	}
	if err := s.store.Update(ctx, docstore.Requests, id, body); err != nil {
		return core.DisbursementRequest{}, fmt.Errorf("update request %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Request status changed",
		"id", id, "status", next)
	publishChange(ctx, s.changes, docstore.Requests, id, docstore.OpUpdate)
	return r, nil
}

func (s *DisbursementService) Submit(ctx context.Context, id string) (core.DisbursementRequest, error) {
	return s.Transition(ctx, id, core.StatusSubmitted)
}

func (s *DisbursementService) BeginApproval(ctx context.Context, id string) (core.DisbursementRequest, error) {
	return s.Transition(ctx, id, core.StatusApproving)
}

func (s *DisbursementService) Approve(ctx context.Context, id string) (core.DisbursementRequest, error) {
	return s.Transition(ctx, id, core.StatusApproved)
}

func (s *DisbursementService) OrderPayment(ctx context.Context, id string) (core.DisbursementRequest, error) {
	return s.Transition(ctx, id, core.StatusPaymentOrdered)
}

func (s *DisbursementService) MarkPaid(ctx context.Context, id string) (core.DisbursementRequest, error) {
	return s.Transition(ctx, id, core.StatusPaid)
}

func (s *DisbursementService) Reject(ctx context.Context, id string) (core.DisbursementRequest, error) {
	return s.Transition(ctx, id, core.StatusRejected)
}

func (s *DisbursementService) RequestInfo(ctx context.Context, id string) (core.DisbursementRequest, error) {
	return s.Transition(ctx, id, core.StatusNeedInfo)
}

// planCollection picks between the fleet-wide and per-project-only plan
// collections. The two variants share a schema and differ only in storage.
func planCollection(onlyProject bool) string {
	if onlyProject {
		return docstore.PlansOnlyProject
	}
	return docstore.Plans
}

func (s *DisbursementService) ListPlans(ctx context.Context, onlyProject bool) ([]core.DisbursementPlan, error) {
	collection := planCollection(onlyProject)
	recs, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]core.DisbursementPlan, 0, len(recs))
	for _, rec := range recs {
		var p core.DisbursementPlan
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			return nil, fmt.Errorf("decode plan %s: %w", rec.ID, err)
		}
		p.ID = rec.ID
		out = append(out, p)
	}
	return out, nil
}

func (s *DisbursementService) GetPlan(ctx context.Context, id string, onlyProject bool) (core.DisbursementPlan, error) {
	rec, err := s.store.Get(ctx, planCollection(onlyProject), id)
	if err != nil {
		return core.DisbursementPlan{}, fmt.Errorf("get plan %s: %w", id, err)
	}
	var p core.DisbursementPlan
	if err := json.Unmarshal(rec.Data, &p); err != nil {
		return core.DisbursementPlan{}, fmt.Errorf("decode plan %s: %w", id, err)
	}
	p.ID = rec.ID
	return p, nil
}

// SavePlan persists a plan after normalizing its periods and dropping
// duplicate months, first occurrence winning. Plans whose id is not in the
// store yet (synthesized plan views being saved for the first time) are
// created with a fresh store id; known ids are updated in place.
func (s *DisbursementService) SavePlan(ctx context.Context, plan core.DisbursementPlan, onlyProject bool) (core.DisbursementPlan, error) {
	if err := plan.Validate(); err != nil {
		return core.DisbursementPlan{}, err
	}
	plan.Items = core.DedupPlanItemsAt(s.now(), plan.Items)

	collection := planCollection(onlyProject)
	persisted := false
	if plan.ID != "" {
		if _, err := s.store.Get(ctx, collection, plan.ID); err == nil {
			persisted = true
		} else if !errors.Is(err, docstore.ErrNotFound) {
			return core.DisbursementPlan{}, fmt.Errorf("get plan %s: %w", plan.ID, err)
		}
	}

	if persisted {
		body, err := json.Marshal(plan)
		if err != nil {
			return core.DisbursementPlan{}, fmt.Errorf("encode plan: %w", err)
		}
		if err := s.store.Update(ctx, collection, plan.ID, body); err != nil {
			return core.DisbursementPlan{}, fmt.Errorf("update plan %s: %w", plan.ID, err)
		}
		publishChange(ctx, s.changes, collection, plan.ID, docstore.OpUpdate)
		return plan, nil
	}

	plan.ID = ""
	body, err := json.Marshal(plan)
	if err != nil {
		return core.DisbursementPlan{}, fmt.Errorf("encode plan: %w", err)
	}
	id, err := s.store.Create(ctx, collection, body)
	if err != nil {
		return core.DisbursementPlan{}, fmt.Errorf("create plan: %w", err)
	}
	plan.ID = id

	publishChange(ctx, s.changes, collection, id, docstore.OpCreate)
	return plan, nil
}

func (s *DisbursementService) DeletePlan(ctx context.Context, id string, onlyProject bool) error {
	collection := planCollection(onlyProject)
	if err := s.store.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	publishChange(ctx, s.changes, collection, id, docstore.OpDelete)
	return nil
}

// EffectivePlan resolves the authoritative plan view for a project from
// stored plans and requests. A blank project id resolves to no plan.
func (s *DisbursementService) EffectivePlan(ctx context.Context, projectID string, onlyProject bool) (*core.DisbursementPlan, error) {
	plans, err := s.ListPlans(ctx, onlyProject)
	if err != nil {
		return nil, err
	}
	requests, err := s.ListRequests(ctx)
	if err != nil {
		return nil, err
	}

	plan := core.EffectivePlanAt(s.now(), plans, requests, projectID, s.ids)
	if plan == nil {
		slog.WarnContext(ctx, "No effective plan without project id")
	}
	return plan, nil
}

// ActualByPeriod returns the project's real spend per period, rejected
// requests excluded.
func (s *DisbursementService) ActualByPeriod(ctx context.Context, projectID string) (map[string]float64, error) {
	requests, err := s.ListProjectRequests(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return core.ActualByPeriodAt(s.now(), requests), nil
}

// Summary reconciles a project's effective plan against its actual spend.
// The plan and actual sides load concurrently.
func (s *DisbursementService) Summary(ctx context.Context, projectID string, onlyProject bool) (core.PlanSummary, error) {
	var (
		plan   *core.DisbursementPlan
		actual map[string]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plan, err = s.EffectivePlan(gctx, projectID, onlyProject)
		return err
	})
	g.Go(func() error {
		var err error
		actual, err = s.ActualByPeriod(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.PlanSummary{}, err
	}
	return core.Summarize(plan, actual), nil
}
