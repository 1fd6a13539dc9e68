package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/gigvoice/plugin/ai"
	"github.com/hrygo/gigvoice/plugin/ai/extract"
	"github.com/hrygo/gigvoice/plugin/ai/session"
	"github.com/hrygo/gigvoice/plugin/ai/timeout"
	aierrors "github.com/hrygo/gigvoice/server/internal/errors"
)

// chatTemperature is used for open-ended replies; extraction always runs at 0.
const chatTemperature = 0.7

// DefaultPreamble seeds every new session.
const DefaultPreamble = "You are a friendly voice assistant for delivery riders. " +
	"Answer in one or two short sentences that are easy to listen to. " +
	"Reply in the language the rider uses."

// FallbackResponder answers utterances no rule handles by forwarding recent
// history to the LLM.
type FallbackResponder struct {
	llm      ai.LLMService
	sessions session.SessionService
	window   int
	timeout  time.Duration
}

// NewFallbackResponder creates a responder. llm may be nil, in which case
// every reply is the static apology.
func NewFallbackResponder(llm ai.LLMService, sessions session.SessionService, window int, timeout time.Duration) *FallbackResponder {
	return &FallbackResponder{llm: llm, sessions: sessions, window: window, timeout: timeout}
}

// Respond returns the reply and the action. The user's turn must already be in
// the session. Backend trouble never surfaces as an error.
func (f *FallbackResponder) Respond(ctx context.Context, userID, locale string) (*Response, error) {
	apology := &Response{Reply: apologies[locale], Action: ActionFallback}
	if f.llm == nil {
		return apology, nil
	}

	turns, err := f.sessions.Window(ctx, userID, f.window)
	if err != nil {
		return nil, err
	}
	messages := toMessages(turns)

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	reply, err := f.llm.Complete(callCtx, messages, chatTemperature)
	if err != nil {
		slog.WarnContext(ctx, "chat fallback failed, using static apology",
			"error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return apology, nil
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		slog.WarnContext(ctx, "chat fallback returned an empty reply")
		return apology, nil
	}

	slog.DebugContext(ctx, "chat fallback replied",
		"reply", timeout.Truncate(reply),
		"history", len(messages),
		"latency_ms", time.Since(start).Milliseconds())
	return &Response{Reply: reply, Action: ActionLLMReply}, nil
}

// toMessages maps session turns to LLM messages. Unknown roles are sent as user
// content.
func toMessages(turns []session.Turn) []ai.Message {
	messages := make([]ai.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case session.RoleSystem:
			messages = append(messages, ai.SystemPrompt(turn.Content))
		case session.RoleAssistant:
			messages = append(messages, ai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, ai.UserMessage(turn.Content))
		}
	}
	return messages
}

// handleGeneral edits items when the utterance names an order and an add or
// remove keyword; anything else goes to the chat fallback.
func (s *Service) handleGeneral(ctx context.Context, turn *turnContext) (*Response, error) {
	if turn.classification.HasTrackingCode() {
		if edit, ok := extract.ParseItemEdit(turn.req.Text); ok {
			return s.handleItemEdit(ctx, edit)
		}
	}

	resp, err := s.fallback.Respond(ctx, turn.req.UserID, turn.locale)
	if err != nil {
		return nil, aierrors.Internal("failed to read session window", err)
	}
	return resp, nil
}
