// Package extract pulls order fields out of free-form utterances.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/gigvoice/plugin/ai"
	"github.com/hrygo/gigvoice/plugin/ai/timeout"
)

// OrderFields are the fields of a new order found in an utterance.
type OrderFields struct {
	CustomerName *string
	Address      *string
	Item         string
	Quantity     int32
	PickupTime   *time.Time
}

// Extractor turns an utterance into OrderFields. With an LLM it asks for a
// structured JSON answer; without one, or when that fails, it uses the text as
// the item.
type Extractor struct {
	llm ai.LLMService
	now func() time.Time
}

// NewExtractor creates an extractor. llm may be nil.
func NewExtractor(llm ai.LLMService) *Extractor {
	return &Extractor{llm: llm, now: time.Now}
}

const extractSystemPrompt = `You extract delivery order details from a rider's message.
Reply with ONLY a JSON object with exactly these keys:
"customer_name" (string or null), "address" (string or null), "item" (string),
"quantity" (integer), "pickup_time" (RFC3339, "YYYY-MM-DD HH:MM", "HH:MM" or null).
Do not add any other text.`

// pickupLayouts are tried in order; a bare clock time means today.
var pickupLayouts = []string{time.RFC3339, "2006-01-02 15:04", "15:04"}

// rawFields mirrors the JSON the model is told to return.
type rawFields struct {
	CustomerName *string `json:"customer_name"`
	Address      *string `json:"address"`
	Item         string  `json:"item"`
	Quantity     any     `json:"quantity"`
	PickupTime   *string `json:"pickup_time"`
}

// ExtractOrder never fails: backend or parse errors yield DefaultFields(text).
func (e *Extractor) ExtractOrder(ctx context.Context, text string) OrderFields {
	if e.llm == nil {
		return DefaultFields(text)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ExtractTimeout)
	defer cancel()

	start := time.Now()
	resp, err := e.llm.Complete(ctx, ai.FormatMessages(extractSystemPrompt, text, nil), 0)
	if err != nil {
		slog.Warn("order extraction failed, using default fields",
			"error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return DefaultFields(text)
	}

	fields, err := e.parseResponse(resp, text)
	if err != nil {
		slog.Warn("order extraction returned unusable output, using default fields",
			"error", err,
			"response", timeout.Truncate(resp))
		return DefaultFields(text)
	}

	slog.Debug("order fields extracted",
		"item", fields.Item,
		"quantity", fields.Quantity,
		"latency_ms", time.Since(start).Milliseconds())
	return fields
}

// DefaultFields is the result when no structured extraction is available.
func DefaultFields(text string) OrderFields {
	return OrderFields{
		Item:     strings.TrimSpace(text),
		Quantity: 1,
	}
}

func (e *Extractor) parseResponse(resp, text string) (OrderFields, error) {
	obj, ok := FirstJSONObject(resp)
	if !ok {
		return OrderFields{}, fmt.Errorf("no JSON object in response")
	}

	var raw rawFields
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return OrderFields{}, fmt.Errorf("invalid JSON: %w", err)
	}

	fields := OrderFields{
		CustomerName: nonEmpty(raw.CustomerName),
		Address:      nonEmpty(raw.Address),
		Item:         strings.TrimSpace(raw.Item),
		Quantity:     parseQuantity(raw.Quantity),
	}
	if fields.Item == "" {
		fields.Item = strings.TrimSpace(text)
	}
	if raw.PickupTime != nil {
		fields.PickupTime = parsePickupTime(*raw.PickupTime, e.now())
	}
	return fields, nil
}

// FirstJSONObject returns the first balanced {...} in s, skipping braces
// inside JSON strings.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

func parseQuantity(v any) int32 {
	var n int64
	switch q := v.(type) {
	case float64:
		n = int64(q)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(q), 10, 32)
		if err == nil {
			n = parsed
		}
	}
	if n <= 0 || n > 1<<31-1 {
		return 1
	}
	return int32(n)
}

func parsePickupTime(s string, now time.Time) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range pickupLayouts {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err != nil {
			continue
		}
		if layout == "15:04" {
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		}
		return &t
	}
	return nil
}
