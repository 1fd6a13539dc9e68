// Package assistant turns one utterance into one action against the order store
// and a spoken reply.
//
// Each call to Handle appends the user turn to the session, classifies the
// text, runs the matching branch, appends the assistant turn and returns.
// Conversational failures (unknown order, missing parameter, LLM trouble)
// become reply text; only unexpected errors are returned.
//
// Two utterances from the same user may run concurrently and interleave their
// turns in the session. There is no per-user lock.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/gigvoice/internal/profile"
	"github.com/hrygo/gigvoice/plugin/ai"
	"github.com/hrygo/gigvoice/plugin/ai/extract"
	"github.com/hrygo/gigvoice/plugin/ai/router"
	"github.com/hrygo/gigvoice/plugin/ai/session"
	aierrors "github.com/hrygo/gigvoice/server/internal/errors"
	"github.com/hrygo/gigvoice/server/internal/observability"
	"github.com/hrygo/gigvoice/store"
)

// AnonymousUser is the session key used when a request carries no user id.
const AnonymousUser = "anonymous"

// Store is the interface for store operations needed by the assistant.
type Store interface {
	CreateOrder(ctx context.Context, create *store.Order) (*store.Order, error)
	GetOrderByTrackingCode(ctx context.Context, code string) (*store.Order, error)
	FindEarliestPendingOrder(ctx context.Context) (*store.Order, error)
	ListRecentOrders(ctx context.Context, limit int) ([]*store.Order, error)
	UpdateOrder(ctx context.Context, update *store.UpdateOrder) (*store.Order, error)
	CountOrders(ctx context.Context, find *store.FindOrder) (int, error)
}

// Config holds the business figures and tuning of the assistant.
type Config struct {
	OrderAmount  float64
	OrderExpense float64
	LatePenalty  float64

	// Channel is recorded in the metadata of created orders.
	Channel string
	// HistoryWindow is how many recent turns the chat fallback sees.
	HistoryWindow int
	// RecentLimit is how many orders list_orders returns.
	RecentLimit int
	// LLMTimeout bounds one chat fallback call.
	LLMTimeout time.Duration
	// Location sets the day and week boundaries of the metrics.
	Location *time.Location
}

// NewConfigFromProfile builds the assistant config from the profile.
func NewConfigFromProfile(p *profile.Profile) Config {
	return Config{
		OrderAmount:  p.OrderAmount,
		OrderExpense: p.OrderExpense,
		LatePenalty:  p.LatePenalty,
		LLMTimeout:   p.AILLMTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.OrderAmount <= 0 {
		c.OrderAmount = profile.DefaultOrderAmount
	}
	if c.OrderExpense <= 0 {
		c.OrderExpense = profile.DefaultOrderExpense
	}
	if c.LatePenalty <= 0 {
		c.LatePenalty = profile.DefaultLatePenalty
	}
	if c.Channel == "" {
		c.Channel = "voice"
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 8
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = 10
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = profile.DefaultLLMTimeout
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Request is one utterance.
type Request struct {
	Text   string
	UserID string
	Locale string
}

// Response is the outcome of one utterance. Action names the branch taken.
type Response struct {
	Reply   string         `json:"reply"`
	Action  string         `json:"action"`
	Order   *OrderInfo     `json:"order,omitempty"`
	Orders  []*OrderInfo   `json:"orders,omitempty"`
	Module  *Module        `json:"module,omitempty"`
	Guide   *Guide         `json:"guide,omitempty"`
	Metrics *MetricsReport `json:"metrics,omitempty"`
}

// Service dispatches utterances.
type Service struct {
	store      Store
	classifier router.ClassifierService
	extractor  *extract.Extractor
	sessions   session.SessionService
	fallback   *FallbackResponder
	content    *contentLibrary
	metrics    *observability.Metrics
	cfg        Config

	now      func() time.Time
	newCode  func(now time.Time) string
	handlers map[router.Intent]handlerFunc
}

// Deps are the collaborators of the Service. LLM, Classifier and Metrics may
// be nil.
type Deps struct {
	Store      Store
	Sessions   session.SessionService
	LLM        ai.LLMService
	Classifier router.ClassifierService
	Metrics    *observability.Metrics
}

type handlerFunc func(ctx context.Context, turn *turnContext) (*Response, error)

// turnContext carries what the branches need about the current utterance.
type turnContext struct {
	req            Request
	classification router.Classification
	locale         string
}

// NewService wires the dispatcher. It fails only if the bundled guides cannot be rendered.
func NewService(deps Deps, cfg Config) (*Service, error) {
	content, err := newContentLibrary()
	if err != nil {
		return nil, err
	}
	if deps.Classifier == nil {
		deps.Classifier = router.NewService(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(0)
	}
	cfg = cfg.withDefaults()

	s := &Service{
		store:      deps.Store,
		classifier: deps.Classifier,
		extractor:  extract.NewExtractor(deps.LLM),
		sessions:   deps.Sessions,
		fallback:   NewFallbackResponder(deps.LLM, deps.Sessions, cfg.HistoryWindow, cfg.LLMTimeout),
		content:    content,
		metrics:    deps.Metrics,
		cfg:        cfg,
		now:        time.Now,
		newCode:    NewTrackingCode,
	}
	s.handlers = map[router.Intent]handlerFunc{
		router.IntentCreateOrder:     s.handleCreateOrder,
		router.IntentTrackOrder:      s.handleTrackOrder,
		router.IntentNextPickup:      s.handleNextPickup,
		router.IntentListOrders:      s.handleListOrders,
		router.IntentCancelOrder:     s.handleCancelOrder,
		router.IntentUpdateAddress:   s.handleUpdateAddress,
		router.IntentEarnings:        s.handleEarnings,
		router.IntentPenalty:         s.handlePenalty,
		router.IntentBusinessGrowth:  s.handleBusinessGrowth,
		router.IntentRoadAlert:       s.handleStatic,
		router.IntentOnboardingHelp:  s.handleStatic,
		router.IntentEmergency:       s.handleStatic,
		router.IntentGuideChallan:    s.handleStatic,
		router.IntentGuideDigiLocker: s.handleStatic,
		router.IntentInsurance:       s.handleStatic,
		router.IntentCustomerService: s.handleStatic,
		router.IntentGeneral:         s.handleGeneral,
	}
	return s, nil
}

// Metrics returns the collector the service records into.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// Handle processes one utterance.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, aierrors.InvalidArgument("text is required")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		req.UserID = AnonymousUser
	}

	reqCtx, ok := observability.FromContext(ctx)
	if !ok {
		reqCtx = observability.NewRequestContext(slog.Default(), req.UserID)
		ctx = observability.WithRequestContext(ctx, reqCtx)
	}
	reqCtx.UserID = req.UserID

	resp, err := s.handle(ctx, reqCtx, req)
	if err != nil {
		s.metrics.RecordFailure()
		reqCtx.Error("utterance failed", err,
			slog.String(observability.LogFieldErrorCode, string(aierrors.GetCodeFromError(err, aierrors.ErrCodeInternal))),
			slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
		return nil, err
	}

	s.metrics.RecordAction(resp.Action, reqCtx.Duration())
	reqCtx.Info("utterance handled",
		slog.String(observability.LogFieldAction, resp.Action),
		slog.Int(observability.LogFieldMessageLen, len(req.Text)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	return resp, nil
}

func (s *Service) handle(ctx context.Context, reqCtx *observability.RequestContext, req Request) (*Response, error) {
	if err := s.sessions.Append(ctx, req.UserID, session.Turn{Role: session.RoleUser, Content: req.Text}); err != nil {
		return nil, aierrors.Internal("failed to record user turn", err)
	}

	classification := s.classifier.Classify(ctx, req.Text)
	reqCtx.Intent = string(classification.Intent)

	handler, ok := s.handlers[classification.Intent]
	if !ok {
		handler = s.handleGeneral
	}
	resp, err := handler(ctx, &turnContext{
		req:            req,
		classification: classification,
		locale:         normalizeLocale(req.Locale),
	})
	if err != nil {
		return nil, err
	}

	assistantTurn := session.Turn{Role: session.RoleAssistant, Content: resp.Reply, Name: resp.Action}
	if err := s.sessions.Append(ctx, req.UserID, assistantTurn); err != nil {
		return nil, aierrors.Internal("failed to record assistant turn", err)
	}
	return resp, nil
}

// storeError marks a failed store call as an unexpected error.
func storeError(op string, err error) error {
	return aierrors.StoreFailed("failed to "+op, err)
}
