package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/gigvoice/plugin/ai"
)

func TestExtractOrder_NoLLM(t *testing.T) {
	e := NewExtractor(nil)
	got := e.ExtractOrder(context.Background(), "  create an order for 2 mangoes ")

	assert.Equal(t, "create an order for 2 mangoes", got.Item)
	assert.Equal(t, int32(1), got.Quantity)
	assert.Nil(t, got.CustomerName)
	assert.Nil(t, got.Address)
	assert.Nil(t, got.PickupTime)
}

func TestExtractOrder_Structured(t *testing.T) {
	mock := ai.NewMockLLMService(`Sure! Here it is:
{"customer_name": "Ravi", "address": "5 Park Street", "item": "mangoes", "quantity": 2, "pickup_time": "2026-03-01 09:30"}
Anything else?`)
	e := NewExtractor(mock)

	got := e.ExtractOrder(context.Background(), "create an order for 2 mangoes for Ravi")
	require.NotNil(t, got.CustomerName)
	assert.Equal(t, "Ravi", *got.CustomerName)
	require.NotNil(t, got.Address)
	assert.Equal(t, "5 Park Street", *got.Address)
	assert.Equal(t, "mangoes", got.Item)
	assert.Equal(t, int32(2), got.Quantity)
	require.NotNil(t, got.PickupTime)
	assert.Equal(t, 9, got.PickupTime.Hour())
	assert.Equal(t, 30, got.PickupTime.Minute())

	// Extraction always runs at temperature 0.
	assert.Equal(t, []float32{0}, mock.Temperatures())
	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "system", calls[0][0].Role)
	assert.Equal(t, "create an order for 2 mangoes for Ravi", calls[0][1].Content)
}

func TestExtractOrder_Fallbacks(t *testing.T) {
	text := "create an order for 2 mangoes"

	tests := []struct {
		name string
		llm  *ai.MockLLMService
	}{
		{"backend error", func() *ai.MockLLMService {
			m := ai.NewMockLLMService()
			m.SetError(errors.New("connection refused"))
			return m
		}()},
		{"no json", ai.NewMockLLMService("I cannot help with that")},
		{"broken json", ai.NewMockLLMService(`{"item": "mangoes", "quantity": }`)},
		{"unbalanced", ai.NewMockLLMService(`{"item": "mangoes"`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewExtractor(tt.llm).ExtractOrder(context.Background(), text)
			assert.Equal(t, DefaultFields(text), got)
		})
	}
}

func TestExtractOrder_NormalizesFields(t *testing.T) {
	mock := ai.NewMockLLMService(`{"customer_name": "", "address": null, "item": "", "quantity": 0, "pickup_time": "soon"}`)
	got := NewExtractor(mock).ExtractOrder(context.Background(), "2 mangoes")

	assert.Nil(t, got.CustomerName)
	assert.Nil(t, got.Address)
	assert.Equal(t, "2 mangoes", got.Item)
	assert.Equal(t, int32(1), got.Quantity)
	assert.Nil(t, got.PickupTime)
}

func TestExtractOrder_StringQuantity(t *testing.T) {
	mock := ai.NewMockLLMService(`{"item": "eggs", "quantity": "12"}`)
	got := NewExtractor(mock).ExtractOrder(context.Background(), "a dozen eggs")
	assert.Equal(t, int32(12), got.Quantity)
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", "x {\"a\":{\"b\":2}} y {\"c\":3}", `{"a":{"b":2}}`, true},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"}\""}`, `{"a":"say \"}\""}`, true},
		{"none", "nothing", "", false},
		{"unterminated", `{"a":`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePickupTime(t *testing.T) {
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	got := parsePickupTime("14:45", now)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 5, 10, 14, 45, 0, 0, time.UTC), *got)

	got = parsePickupTime("2026-05-11T10:00:00Z", now)
	require.NotNil(t, got)
	assert.Equal(t, 11, got.Day())

	got = parsePickupTime("2026-05-12 07:15", now)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 5, 12, 7, 15, 0, 0, time.UTC), *got)

	assert.Nil(t, parsePickupTime("tomorrow morning", now))
	assert.Nil(t, parsePickupTime("", now))
}

func TestParseAddressUpdate(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCode    string
		wantAddress string
		wantErr     error
	}{
		{"to connector", "update address for ORD-9 to 12 MG Road", "ORD-9", "12 MG Road", nil},
		{"colon", "change address ORD-AB12: 5 Park Street, Kolkata", "ORD-AB12", "5 Park Street, Kolkata", nil},
		{"is connector", "new address of ord-x1 is Flat 3, Lake View", "ord-x1", "Flat 3, Lake View", nil},
		{"one connector only", "update ORD-1 to Address Tower 5", "ORD-1", "Address Tower 5", nil},
		{"keeps trailing dot", "update address for ORD-2 to 4 Church St.", "ORD-2", "4 Church St.", nil},
		{"keeps hyphen", "update address ORD-4 to - Block B", "ORD-4", "- Block B", nil},
		{"keeps words starting with to", "update address ORD-3 Tollygunge", "ORD-3", "Tollygunge", nil},
		{"missing address", "update address for ORD-9", "ORD-9", "", ErrAddressMissing},
		{"only connector", "update address for ORD-9 to", "ORD-9", "", ErrAddressMissing},
		{"missing code", "update my address to 12 MG Road", "", "", ErrTrackingCodeMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, address, err := ParseAddressUpdate(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantAddress, address)
		})
	}
}

func TestParseItemEdit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		wantOp ItemOp
		items  []string
		code   string
	}{
		{"add before code", "add 2 bananas to ORD-5", true, ItemOpAdd, []string{"2 bananas"}, "ORD-5"},
		{"add list", "Add eggs, bread and butter to my order ORD-5", true, ItemOpAdd, []string{"eggs", "bread", "butter"}, "ORD-5"},
		{"remove", "remove milk from ORD-1 please", true, ItemOpRemove, []string{"milk"}, "ORD-1"},
		{"code first", "ORD-1 remove milk and eggs", true, ItemOpRemove, []string{"milk", "eggs"}, "ORD-1"},
		{"keeps sandwich", "add sandwich to ORD-2", true, ItemOpAdd, []string{"sandwich"}, "ORD-2"},
		{"nothing to add", "add to ORD-1", true, ItemOpAdd, nil, "ORD-1"},
		{"address is not add", "address of ORD-1", false, "", nil, ""},
		{"no keyword", "track ORD-1", false, "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, ok := ParseItemEdit(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantOp, edit.Op)
			assert.Equal(t, tt.items, edit.Items)
			assert.Equal(t, tt.code, edit.TrackingCode)
		})
	}
}

func TestApplyItemEdit(t *testing.T) {
	add := ItemEdit{Op: ItemOpAdd, Items: []string{"bread", "jam"}}
	assert.Equal(t, "milk, bread, jam", ApplyItemEdit("milk", add))
	assert.Equal(t, "bread, jam", ApplyItemEdit("", add))

	remove := ItemEdit{Op: ItemOpRemove, Items: []string{"milk"}}
	assert.Equal(t, "eggs, bread", ApplyItemEdit("milk, eggs, bread, milk", remove))
	assert.Equal(t, "eggs", ApplyItemEdit("eggs", remove))

	// Removal matches exactly; case differences are kept.
	caseOnly := ItemEdit{Op: ItemOpRemove, Items: []string{"Milk"}}
	assert.Equal(t, "milk, eggs", ApplyItemEdit("milk, eggs", caseOnly))
}

func TestSplitItems(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitItems(" a, ,b "))
	assert.Equal(t, []string{}, SplitItems(""))
}
