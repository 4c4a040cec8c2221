package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"giaingan/internal/cache"
	"giaingan/internal/core"
	"giaingan/internal/services"
)

// Server wires the JSON API over the service layer. Dashboard aggregates are
// cached per project with TTL+LRU eviction and invalidated on every
// disbursement mutation.
type Server struct {
	http.Server

	projects      *services.ProjectService
	disbursements *services.DisbursementService
	groups        *services.GroupService
	discussions   *services.DiscussService

	rateLimiter *mutationLimiter
	metrics     *securityMetrics

	planCache    *cache.LRUCache[*core.DisbursementPlan]
	summaryCache *cache.LRUCache[core.PlanSummary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures all routes, returning a ready-to-run server.
// mutationsPerMinute is the per-IP write budget.
func NewServer(
	addr string,
	mutationsPerMinute int,
	projects *services.ProjectService,
	disbursements *services.DisbursementService,
	groups *services.GroupService,
	discussions *services.DiscussService,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		projects:      projects,
		disbursements: disbursements,
		groups:        groups,
		discussions:   discussions,
		rateLimiter:   newMutationLimiter(mutationsPerMinute),
		metrics:       &securityMetrics{},
		planCache:     cache.NewLRUCache[*core.DisbursementPlan](200, 5*time.Minute),
		summaryCache:  cache.NewLRUCache[core.PlanSummary](200, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.planCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withMiddleware(h))
	}

	route("GET /api/projects", s.handleListProjects)
	route("POST /api/projects", s.handleCreateProject)
	route("GET /api/projects/{id}", s.handleGetProject)
	route("PUT /api/projects/{id}", s.handleUpdateProject)
	route("DELETE /api/projects/{id}", s.handleDeleteProject)
	route("POST /api/projects/{id}/milestones", s.handleAddMilestone)
	route("PUT /api/projects/{id}/milestones/{milestoneID}", s.handleUpdateMilestone)
	route("DELETE /api/projects/{id}/milestones/{milestoneID}", s.handleRemoveMilestone)

	route("GET /api/templates", s.handleListTemplates)
	route("POST /api/templates", s.handleCreateTemplate)
	route("GET /api/templates/{id}", s.handleGetTemplate)
	route("PUT /api/templates/{id}", s.handleUpdateTemplate)
	route("DELETE /api/templates/{id}", s.handleDeleteTemplate)

	route("GET /api/groups", s.handleListGroups)
	route("POST /api/groups", s.handleCreateGroup)
	route("GET /api/groups/{id}", s.handleGetGroup)
	route("PUT /api/groups/{id}", s.handleUpdateGroup)
	route("DELETE /api/groups/{id}", s.handleDeleteGroup)

	route("GET /api/projects/{id}/discussions", s.handleListChannels)
	route("POST /api/projects/{id}/discussions", s.handleCreateChannel)
	route("DELETE /api/projects/{id}/discussions/{channelID}", s.handleDeleteChannel)
	route("GET /api/projects/{id}/discussions/{channelID}/messages", s.handleListMessages)
	route("POST /api/projects/{id}/discussions/{channelID}/messages", s.handlePostMessage)

	route("GET /api/disbursement/requests", s.handleListRequests)
	route("POST /api/disbursement/requests", s.handleCreateRequest)
	route("GET /api/disbursement/requests/{id}", s.handleGetRequest)
	route("PUT /api/disbursement/requests/{id}", s.handleUpdateRequest)
	route("DELETE /api/disbursement/requests/{id}", s.handleDeleteRequest)
	route("POST /api/disbursement/requests/{id}/submit", s.transitionHandler(disbursements.Submit))
	route("POST /api/disbursement/requests/{id}/begin-approval", s.transitionHandler(disbursements.BeginApproval))
	route("POST /api/disbursement/requests/{id}/approve", s.transitionHandler(disbursements.Approve))
	route("POST /api/disbursement/requests/{id}/order-payment", s.transitionHandler(disbursements.OrderPayment))
	route("POST /api/disbursement/requests/{id}/mark-paid", s.transitionHandler(disbursements.MarkPaid))
	route("POST /api/disbursement/requests/{id}/reject", s.transitionHandler(disbursements.Reject))
	route("POST /api/disbursement/requests/{id}/need-info", s.transitionHandler(disbursements.RequestInfo))

	route("GET /api/disbursement/plans", s.handleListPlans)
	route("POST /api/disbursement/plans", s.handleSavePlan)
	route("GET /api/disbursement/plans/{id}", s.handleGetPlan)
	route("PUT /api/disbursement/plans/{id}", s.handleSavePlanByID)
	route("DELETE /api/disbursement/plans/{id}", s.handleDeletePlan)

	route("GET /api/projects/{id}/disbursement/plan", s.handleEffectivePlan)
	route("GET /api/projects/{id}/disbursement/actual-by-period", s.handleActualByPeriod)
	route("GET /api/projects/{id}/disbursement/summary", s.handleDashboardSummary)

	return s
}

// withMiddleware adds request IDs, security headers, rate limiting on
// mutating methods, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the server along with its cache and rate limiter loops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
