package assistant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/gigvoice/internal/profile"
	"github.com/hrygo/gigvoice/plugin/ai"
	"github.com/hrygo/gigvoice/plugin/ai/router"
	"github.com/hrygo/gigvoice/plugin/ai/session"
	aierrors "github.com/hrygo/gigvoice/server/internal/errors"
	"github.com/hrygo/gigvoice/store"
	"github.com/hrygo/gigvoice/store/db/sqlite"
)

// fixedNow is a Wednesday; its week starts on Sunday 2026-10-11.
var fixedNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

var trackingCodeFormat = regexp.MustCompile(`^ORD-[A-Za-z0-9]+$`)

type testEnv struct {
	svc      *Service
	store    *store.Store
	sessions *session.MockSessionService
}

func newTestEnv(t *testing.T, llm ai.LLMService, cfg Config) *testEnv {
	t.Helper()
	prof := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "assistant.db"),
	}
	driver, err := sqlite.NewDB(prof)
	require.NoError(t, err)
	st := store.New(driver, prof)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	sessions := session.NewMockSessionService(DefaultPreamble)
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	svc, err := NewService(Deps{Store: st, Sessions: sessions, LLM: llm}, cfg)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }

	return &testEnv{svc: svc, store: st, sessions: sessions}
}

func (e *testEnv) handle(t *testing.T, text string) *Response {
	t.Helper()
	resp, err := e.svc.Handle(context.Background(), Request{Text: text, UserID: "rider-1"})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) seedOrder(t *testing.T, order *store.Order) *store.Order {
	t.Helper()
	if order.Item == "" {
		order.Item = "parcel"
	}
	created, err := e.store.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	return created
}

func strPtr(s string) *string { return &s }

func TestHandle_CreateOrder(t *testing.T) {
	env := newTestEnv(t, nil, Config{})

	resp := env.handle(t, "create an order for 2 mangoes")
	assert.Equal(t, ActionCreatedOrder, resp.Action)
	require.NotNil(t, resp.Order)
	assert.Regexp(t, trackingCodeFormat, resp.Order.TrackingCode)
	assert.Contains(t, resp.Reply, resp.Order.TrackingCode)
	assert.Equal(t, "create an order for 2 mangoes", resp.Order.Item)
	assert.Equal(t, int32(1), resp.Order.Quantity)

	stored, err := env.store.GetOrderByTrackingCode(context.Background(), resp.Order.TrackingCode)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, store.OrderStatusCreated, stored.Status)
	assert.Equal(t, "rider-1", stored.Payload.CreatorID)
	assert.Equal(t, "voice", stored.Payload.Channel)
	assert.Equal(t, profile.DefaultOrderAmount, stored.Amount)
	assert.Equal(t, profile.DefaultOrderExpense, stored.Expense)
	assert.Equal(t, fixedNow.Unix(), stored.CreatedTs)
}

func TestHandle_CreateOrderWithExtraction(t *testing.T) {
	llm := ai.NewMockLLMService(`{"customer_name": "Ravi", "address": "5 Park Street", "item": "mangoes", "quantity": 2, "pickup_time": "16:30"}`)
	env := newTestEnv(t, llm, Config{})

	resp := env.handle(t, "create an order for 2 mangoes for Ravi at 5 Park Street")
	require.Equal(t, ActionCreatedOrder, resp.Action)
	require.NotNil(t, resp.Order.CustomerName)
	assert.Equal(t, "Ravi", *resp.Order.CustomerName)
	assert.Equal(t, "mangoes", resp.Order.Item)
	assert.Equal(t, int32(2), resp.Order.Quantity)
	require.NotNil(t, resp.Order.PickupTime)
	assert.Equal(t, 16, resp.Order.PickupTime.Hour())
	assert.Equal(t, []float32{0}, llm.Temperatures())
}

func TestHandle_TrackingCodesAreUnique(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		resp := env.handle(t, fmt.Sprintf("create an order for item %d", i))
		require.Equal(t, ActionCreatedOrder, resp.Action)
		code := resp.Order.TrackingCode
		assert.Regexp(t, trackingCodeFormat, code)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestMintTrackingCode_RetriesOnCollision(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-TAKEN"})

	codes := []string{"ORD-TAKEN", "ORD-TAKEN", "ORD-FREE"}
	env.svc.newCode = func(time.Time) string {
		code := codes[0]
		codes = codes[1:]
		return code
	}
	resp := env.handle(t, "create an order for bread")
	assert.Equal(t, "ORD-FREE", resp.Order.TrackingCode)

	env.svc.newCode = func(time.Time) string { return "ORD-TAKEN" }
	_, err := env.svc.Handle(context.Background(), Request{Text: "create an order for milk"})
	require.Error(t, err)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeStoreFailed))
}

func TestNewTrackingCode(t *testing.T) {
	code := NewTrackingCode(fixedNow)
	assert.Regexp(t, `^ORD-[0-9A-Z]+$`, code)
	// 2026 milliseconds take 8 base36 digits.
	assert.Len(t, code, len(trackingCodePrefix)+8+trackingRandomLength)
	assert.NotEqual(t, code, NewTrackingCode(fixedNow))
}

func TestHandle_TrackOrder(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.seedOrder(t, &store.Order{
		TrackingCode: "ORD-ABC123",
		CustomerName: strPtr("Ravi"),
		Address:      strPtr("5 Park Street"),
		Item:         "mangoes",
		Status:       store.OrderStatusShipped,
	})

	resp := env.handle(t, "track order ord-abc123")
	assert.Equal(t, ActionTrackOrder, resp.Action)
	assert.Contains(t, resp.Reply, "Ravi")
	assert.Contains(t, resp.Reply, "mangoes")
	assert.Contains(t, resp.Reply, "5 Park Street")
	assert.Contains(t, resp.Reply, "shipped")

	resp = env.handle(t, "track order ORD-NOPE1")
	assert.Equal(t, ActionOrderNotFound, resp.Action)
	assert.Contains(t, resp.Reply, "ORD-NOPE1")

	resp = env.handle(t, "track my order")
	assert.Equal(t, ActionAskForTrackingID, resp.Action)
}

func TestHandle_NextPickup(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	ctx := context.Background()

	resp := env.handle(t, "what is my next pickup")
	assert.Equal(t, ActionNoPickups, resp.Action)

	t1 := fixedNow.Add(time.Hour).Unix()
	t2 := fixedNow.Add(2 * time.Hour).Unix()
	earlier := fixedNow.Add(-time.Hour).Unix()
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-NULL", CreatedTs: 100})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-T2", PickupTs: &t2, CreatedTs: 200})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-T1", PickupTs: &t1, CreatedTs: 300, Status: store.OrderStatusAssigned})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-DONE", PickupTs: &earlier, CreatedTs: 50, Status: store.OrderStatusDelivered})

	resp = env.handle(t, "what is my next pickup")
	assert.Equal(t, ActionNextPickup, resp.Action)
	assert.Equal(t, "ORD-T1", resp.Order.TrackingCode)

	// Scheduled orders come before unscheduled ones regardless of creation time.
	delivered := store.OrderStatusDelivered
	_, err := env.store.UpdateOrder(ctx, &store.UpdateOrder{TrackingCode: "ORD-T1", Status: &delivered})
	require.NoError(t, err)
	resp = env.handle(t, "upcoming pickup?")
	assert.Equal(t, "ORD-T2", resp.Order.TrackingCode)

	_, err = env.store.UpdateOrder(ctx, &store.UpdateOrder{TrackingCode: "ORD-T2", Status: &delivered})
	require.NoError(t, err)
	resp = env.handle(t, "next pickup")
	assert.Equal(t, "ORD-NULL", resp.Order.TrackingCode)
}

func TestHandle_ListOrders(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	for i := 1; i <= 12; i++ {
		env.seedOrder(t, &store.Order{TrackingCode: fmt.Sprintf("ORD-L%02d", i), CreatedTs: int64(1000 + i)})
	}

	resp := env.handle(t, "show my recent orders")
	assert.Equal(t, ActionListOrders, resp.Action)
	require.Len(t, resp.Orders, 10)
	assert.Equal(t, "ORD-L12", resp.Orders[0].TrackingCode)
	assert.Equal(t, "ORD-L03", resp.Orders[9].TrackingCode)
}

func TestHandle_CancelOrderIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-C1"})

	for i := 0; i < 2; i++ {
		resp := env.handle(t, "cancel order ORD-C1")
		assert.Equal(t, ActionCancelledOrder, resp.Action)
		assert.Equal(t, store.OrderStatusCancelled, resp.Order.Status)
	}

	assert.Equal(t, ActionOrderNotFound, env.handle(t, "cancel ORD-MISSING").Action)
	assert.Equal(t, ActionAskForTrackingID, env.handle(t, "cancel my order").Action)
}

func TestHandle_UpdateAddress(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	ctx := context.Background()
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-A1", Address: strPtr("Old Road"), UpdatedTs: 500})

	t.Run("unknown order", func(t *testing.T) {
		resp := env.handle(t, "update address for ORD-ZZZ to 12 MG Road")
		assert.Equal(t, ActionOrderNotFound, resp.Action)
		assert.Contains(t, resp.Reply, "ORD-ZZZ")

		count, err := env.store.CountOrders(ctx, &store.FindOrder{})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("missing address", func(t *testing.T) {
		resp := env.handle(t, "update address for ORD-A1")
		assert.Equal(t, ActionAskForAddress, resp.Action)

		order, err := env.store.GetOrderByTrackingCode(ctx, "ORD-A1")
		require.NoError(t, err)
		assert.Equal(t, "Old Road", *order.Address)
		assert.Equal(t, int64(500), order.UpdatedTs)
	})

	t.Run("missing code", func(t *testing.T) {
		resp := env.handle(t, "change my address to 12 MG Road")
		assert.Equal(t, ActionAskForTrackingID, resp.Action)
	})

	t.Run("updated", func(t *testing.T) {
		resp := env.handle(t, "update address for ORD-A1 to 12 MG Road")
		assert.Equal(t, ActionAddressUpdated, resp.Action)
		require.NotNil(t, resp.Order.Address)
		assert.Equal(t, "12 MG Road", *resp.Order.Address)
		assert.Equal(t, "ORD-A1", resp.Order.TrackingCode)
	})

	t.Run("new address with lowercase code", func(t *testing.T) {
		resp := env.handle(t, "new address for order ord-a1 is 9 Lake Road")
		assert.Equal(t, ActionAddressUpdated, resp.Action)
		assert.Equal(t, "9 Lake Road", *resp.Order.Address)

		resp = env.handle(t, "track my new order ORD-A1")
		assert.Equal(t, ActionTrackOrder, resp.Action)

		count, err := env.store.CountOrders(ctx, &store.FindOrder{})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestHandle_ItemEdit(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-I1", Item: "milk, eggs"})

	resp := env.handle(t, "add bread and jam to ORD-I1")
	assert.Equal(t, ActionItemsUpdated, resp.Action)
	assert.Equal(t, "milk, eggs, bread, jam", resp.Order.Item)

	resp = env.handle(t, "remove eggs from ORD-I1")
	assert.Equal(t, ActionItemsUpdated, resp.Action)
	assert.Equal(t, "milk, bread, jam", resp.Order.Item)

	assert.Equal(t, ActionAskForItems, env.handle(t, "add to ORD-I1").Action)
	assert.Equal(t, ActionOrderNotFound, env.handle(t, "add rice to ORD-NONE").Action)
}

func TestHandle_Metrics(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	today := fixedNow.Add(-2 * time.Hour).Unix()
	yesterday := fixedNow.AddDate(0, 0, -1).Unix()

	env.seedOrder(t, &store.Order{TrackingCode: "ORD-E1", CreatedTs: today})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-E2", CreatedTs: today})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-E3", CreatedTs: today, Status: store.OrderStatusLate})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-E4", CreatedTs: yesterday, Status: store.OrderStatusLate})

	resp := env.handle(t, "how much did I earn today")
	assert.Equal(t, ActionEarnings, resp.Action)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 3, resp.Metrics.Orders)
	assert.Equal(t, 120.0, resp.Metrics.Amount)
	assert.Equal(t, 24.0, resp.Metrics.Expense)
	assert.Equal(t, 96.0, resp.Metrics.Net)

	resp = env.handle(t, "any penalty today?")
	assert.Equal(t, ActionPenalty, resp.Action)
	assert.Equal(t, 1, resp.Metrics.LateOrders)
	assert.Equal(t, 10.0, resp.Metrics.Penalty)
}

func TestHandle_BusinessGrowth(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	at := func(day, hour, minute int) int64 {
		return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC).Unix()
	}
	// This week: Sunday midnight through now.
	for i, ts := range []int64{at(11, 0, 0), at(13, 9, 0), at(14, 8, 0)} {
		env.seedOrder(t, &store.Order{TrackingCode: fmt.Sprintf("ORD-W%d", i), CreatedTs: ts})
	}
	// Last week, plus one order just before it.
	for i, ts := range []int64{at(4, 0, 0), at(10, 23, 59), at(3, 23, 59)} {
		env.seedOrder(t, &store.Order{TrackingCode: fmt.Sprintf("ORD-P%d", i), CreatedTs: ts})
	}

	resp := env.handle(t, "how is my business doing")
	assert.Equal(t, ActionBusinessGrowth, resp.Action)
	assert.Equal(t, 3, resp.Metrics.ThisWeek)
	assert.Equal(t, 2, resp.Metrics.LastWeek)
	require.NotNil(t, resp.Metrics.ChangePercent)
	assert.Equal(t, 50.0, *resp.Metrics.ChangePercent)
	assert.Contains(t, resp.Reply, "up 50.0%")
}

func TestHandle_BusinessGrowthFromZero(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.seedOrder(t, &store.Order{TrackingCode: "ORD-G1", CreatedTs: fixedNow.Add(-time.Hour).Unix()})

	resp := env.handle(t, "show business growth")
	assert.Equal(t, 1, resp.Metrics.ThisWeek)
	assert.Nil(t, resp.Metrics.ChangePercent)
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday", fixedNow, time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)},
		{"sunday midnight", time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)},
		{"saturday night", time.Date(2026, 10, 10, 23, 59, 0, 0, time.UTC), time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC)},
		{"across month", time.Date(2026, 11, 2, 12, 0, 0, 0, time.UTC), time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weekStart(tt.in, time.UTC))
		})
	}

	// Local boundaries, not UTC ones.
	ist := time.FixedZone("IST", 5*3600+1800)
	got := weekStart(time.Date(2026, 10, 10, 20, 0, 0, 0, time.UTC), ist)
	assert.Equal(t, time.Date(2026, 10, 11, 0, 0, 0, 0, ist), got)
}

func TestHandle_StaticTopics(t *testing.T) {
	env := newTestEnv(t, nil, Config{})

	tests := []struct {
		text   string
		action string
	}{
		{"traffic jam near the flyover", "road_alert"},
		{"I need onboarding help", "onboarding_help"},
		{"there was an accident", "emergency"},
		{"how do I pay a challan", "guide_challan"},
		{"open digilocker", "guide_digilocker"},
		{"tell me about insurance", "insurance"},
		{"customer care number please", "customer_service"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			resp := env.handle(t, tt.text)
			assert.Equal(t, tt.action, resp.Action)
			assert.NotEmpty(t, resp.Reply)
		})
	}

	resp := env.handle(t, "how do I get started")
	require.NotNil(t, resp.Module)
	assert.Equal(t, "onboarding", resp.Module.ID)
	assert.NotEmpty(t, resp.Module.Steps)

	resp = env.handle(t, "challan")
	require.NotNil(t, resp.Guide)
	assert.Equal(t, "guide_challan", resp.Guide.ID)
	assert.Equal(t, "How to check and pay a traffic challan", resp.Guide.Title)
	assert.Contains(t, resp.Guide.HTML, "<ol>")
	assert.Contains(t, resp.Guide.HTML, "<strong>Pay Now</strong>")
}

func TestHandle_StaticTopicsInHindi(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	ctx := context.Background()

	resp, err := env.svc.Handle(ctx, Request{Text: "challan kaise bhare", Locale: "hi-IN"})
	require.NoError(t, err)
	assert.Equal(t, staticReplies[localeHindi][router.Intent(resp.Guide.ID)], resp.Reply)
	assert.Contains(t, resp.Guide.Title, "चालान")

	resp, err = env.svc.Handle(ctx, Request{Text: "emergency", Locale: "hi"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "112")
	assert.NotEqual(t, staticReplies[localeEnglish][router.IntentEmergency], resp.Reply)
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, localeHindi, normalizeLocale("hi"))
	assert.Equal(t, localeHindi, normalizeLocale(" HI-in "))
	assert.Equal(t, localeEnglish, normalizeLocale("en-US"))
	assert.Equal(t, localeEnglish, normalizeLocale(""))
	assert.Equal(t, localeEnglish, normalizeLocale("hindi"))
}

func TestHandle_FallbackWithoutLLM(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	resp := env.handle(t, "tell me a joke")
	assert.Equal(t, ActionFallback, resp.Action)
	assert.Equal(t, apologies[localeEnglish], resp.Reply)
}

func TestHandle_LLMReply(t *testing.T) {
	llm := ai.NewMockLLMService("Why did the scooter stop? It was two-tyred.")
	env := newTestEnv(t, llm, Config{})

	for i := 0; i < 6; i++ {
		env.handle(t, fmt.Sprintf("tell me joke %d", i))
	}
	calls := llm.Calls()
	require.Len(t, calls, 6)

	last := calls[5]
	// Preamble plus the last 8 turns; the newest is the user's utterance.
	require.Len(t, last, 9)
	assert.Equal(t, "system", last[0].Role)
	assert.Equal(t, DefaultPreamble, last[0].Content)
	assert.Equal(t, "user", last[8].Role)
	assert.Equal(t, "tell me joke 5", last[8].Content)
	assert.Equal(t, float32(chatTemperature), llm.Temperatures()[5])

	turns, err := env.sessions.GetOrCreate(context.Background(), "rider-1")
	require.NoError(t, err)
	assert.Equal(t, "Why did the scooter stop? It was two-tyred.", turns[len(turns)-1].Content)
	assert.Equal(t, ActionLLMReply, turns[len(turns)-1].Name)
}

func TestToMessages(t *testing.T) {
	got := toMessages([]session.Turn{
		{Role: session.RoleSystem, Content: "preamble"},
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "hello", Name: ActionLLMReply},
		{Role: "tool", Content: "odd"},
	})
	assert.Equal(t, []ai.Message{
		{Role: "system", Content: "preamble"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "odd"},
	}, got)
}

func TestHandle_LLMFailuresDegrade(t *testing.T) {
	tests := []struct {
		name string
		llm  func() *ai.MockLLMService
	}{
		{"error", func() *ai.MockLLMService {
			m := ai.NewMockLLMService()
			m.SetError(errors.New("502 bad gateway"))
			return m
		}},
		{"timeout", func() *ai.MockLLMService {
			m := ai.NewMockLLMService()
			m.SetBlocking(true)
			return m
		}},
		{"empty reply", func() *ai.MockLLMService { return ai.NewMockLLMService("   ") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.llm(), Config{LLMTimeout: 20 * time.Millisecond})
			start := time.Now()
			resp := env.handle(t, "what's the weather like")
			assert.Equal(t, ActionFallback, resp.Action)
			assert.Equal(t, apologies[localeEnglish], resp.Reply)
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}

func TestHandle_RecordsSessionTurns(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.handle(t, "track my order")

	turns, err := env.sessions.GetOrCreate(context.Background(), "rider-1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, session.RoleSystem, turns[0].Role)
	assert.Equal(t, session.RoleUser, turns[1].Role)
	assert.Equal(t, "track my order", turns[1].Content)
	assert.Equal(t, session.RoleAssistant, turns[2].Role)
	assert.Equal(t, ActionAskForTrackingID, turns[2].Name)
}

func TestHandle_RequestValidation(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	ctx := context.Background()

	_, err := env.svc.Handle(ctx, Request{Text: "   "})
	require.Error(t, err)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))

	_, err = env.svc.Handle(ctx, Request{Text: "track my order"})
	require.NoError(t, err)
	turns, err := env.sessions.GetOrCreate(ctx, AnonymousUser)
	require.NoError(t, err)
	assert.Len(t, turns, 3)
}

func TestHandle_SessionFailureIsUnexpected(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.sessions.SetFail(true)

	_, err := env.svc.Handle(context.Background(), Request{Text: "track my order", UserID: "u"})
	require.Error(t, err)
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInternal))
	assert.ErrorIs(t, err, session.ErrMockSession)

	snap := env.svc.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.RequestFailed)
}

func TestHandle_RecordsActionMetrics(t *testing.T) {
	env := newTestEnv(t, nil, Config{})
	env.handle(t, "track my order")
	env.handle(t, "cancel my order")
	env.handle(t, "tell me a joke")

	snap := env.svc.Metrics().Snapshot()
	assert.Equal(t, int64(3), snap.RequestTotal)
	assert.Equal(t, int64(2), snap.Actions[ActionAskForTrackingID])
	assert.Equal(t, int64(1), snap.Actions[ActionFallback])
}
