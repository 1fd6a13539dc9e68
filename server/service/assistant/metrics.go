package assistant

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/gigvoice/store"
)

// MetricsReport carries the figures behind a metrics reply. Only the fields of
// the asked metric are set.
type MetricsReport struct {
	Orders  int     `json:"orders,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Expense float64 `json:"expense,omitempty"`
	Net     float64 `json:"net,omitempty"`

	LateOrders int     `json:"lateOrders,omitempty"`
	Penalty    float64 `json:"penalty,omitempty"`

	ThisWeek int `json:"thisWeek,omitempty"`
	LastWeek int `json:"lastWeek,omitempty"`
	// ChangePercent is nil when last week had no orders.
	ChangePercent *float64 `json:"changePercent,omitempty"`
}

// dayBounds returns local midnight of t's day and of the next day.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// weekStart returns local midnight of the Sunday on or before t.
func weekStart(t time.Time, loc *time.Location) time.Time {
	day, _ := dayBounds(t, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func (s *Service) countBetween(ctx context.Context, from, to time.Time, statuses ...string) (int, error) {
	after, before := from.Unix(), to.Unix()
	count, err := s.store.CountOrders(ctx, &store.FindOrder{
		StatusList:      statuses,
		CreatedTsAfter:  &after,
		CreatedTsBefore: &before,
	})
	if err != nil {
		return 0, storeError("count orders", err)
	}
	return count, nil
}

func (s *Service) handleEarnings(ctx context.Context, _ *turnContext) (*Response, error) {
	from, to := dayBounds(s.now(), s.cfg.Location)
	count, err := s.countBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &MetricsReport{
		Orders:  count,
		Amount:  float64(count) * s.cfg.OrderAmount,
		Expense: float64(count) * s.cfg.OrderExpense,
	}
	report.Net = report.Amount - report.Expense

	reply := fmt.Sprintf("Today you completed %d orders. Earnings: ₹%.0f, expenses: ₹%.0f, net: ₹%.0f.",
		report.Orders, report.Amount, report.Expense, report.Net)
	return &Response{Reply: reply, Action: ActionEarnings, Metrics: report}, nil
}

func (s *Service) handlePenalty(ctx context.Context, _ *turnContext) (*Response, error) {
	from, to := dayBounds(s.now(), s.cfg.Location)
	late, err := s.countBetween(ctx, from, to, store.OrderStatusLate)
	if err != nil {
		return nil, err
	}

	report := &MetricsReport{
		LateOrders: late,
		Penalty:    float64(late) * s.cfg.LatePenalty,
	}
	var reply string
	if late == 0 {
		reply = "Great job! You have no late deliveries today, so no penalty."
	} else {
		reply = fmt.Sprintf("You have %d late deliveries today. Penalty: ₹%.0f.", late, report.Penalty)
	}
	return &Response{Reply: reply, Action: ActionPenalty, Metrics: report}, nil
}

func (s *Service) handleBusinessGrowth(ctx context.Context, _ *turnContext) (*Response, error) {
	thisStart := weekStart(s.now(), s.cfg.Location)
	thisEnd := thisStart.AddDate(0, 0, 7)
	lastStart := thisStart.AddDate(0, 0, -7)

	report := &MetricsReport{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.countBetween(gctx, thisStart, thisEnd)
		report.ThisWeek = n
		return err
	})
	g.Go(func() error {
		n, err := s.countBetween(gctx, lastStart, thisStart)
		report.LastWeek = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var reply string
	switch {
	case report.LastWeek == 0 && report.ThisWeek == 0:
		reply = "You have no orders this week or last week yet."
	case report.LastWeek == 0:
		reply = fmt.Sprintf("You have %d orders this week, up from none last week.", report.ThisWeek)
	default:
		change := float64(report.ThisWeek-report.LastWeek) / float64(report.LastWeek) * 100
		change = math.Round(change*10) / 10
		report.ChangePercent = &change
		direction := "up"
		if change < 0 {
			direction = "down"
		}
		reply = fmt.Sprintf("You have %d orders this week versus %d last week, %s %.1f%%.",
			report.ThisWeek, report.LastWeek, direction, math.Abs(change))
	}
	return &Response{Reply: reply, Action: ActionBusinessGrowth, Metrics: report}, nil
}
