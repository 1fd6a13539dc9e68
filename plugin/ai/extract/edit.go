package extract

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/hrygo/gigvoice/plugin/ai/router"
)

var (
	// ErrTrackingCodeMissing is returned when the text names no order.
	ErrTrackingCodeMissing = errors.New("tracking code missing")
	// ErrAddressMissing is returned when the text names an order but no address.
	ErrAddressMissing = errors.New("address missing")
)

var (
	// addressLeadPattern strips one connector between the code and the address.
	addressLeadPattern = regexp.MustCompile(`(?i)^\s*(?::|(?:to|is)(?:\s+|$))`)

	editKeywordPattern  = regexp.MustCompile(`(?i)\b(add|remove)\b`)
	itemSplitPattern    = regexp.MustCompile(`(?i)\s*(?:,|\band\b)\s*`)
	itemLeadPattern     = regexp.MustCompile(`(?i)^(?:\s*(?:to|from|in|into|the)\b)+\s*`)
	itemTrailingPattern = regexp.MustCompile(`(?i)(?:\s+(?:to|from|in|into|on|of|for|my|the|order))+\s*$`)
)

// ParseAddressUpdate finds the tracking code and the new address after it.
// The code is returned as written, even when the address is missing.
func ParseAddressUpdate(text string) (code, address string, err error) {
	start, end, ok := router.TrackingCodeSpan(text)
	if !ok {
		return "", "", ErrTrackingCodeMissing
	}
	code = text[start:end]

	address = strings.TrimSpace(addressLeadPattern.ReplaceAllString(text[end:], ""))
	if address == "" {
		return code, "", ErrAddressMissing
	}
	return code, address, nil
}

// ItemOp is an item edit operation.
type ItemOp string

const (
	ItemOpAdd    ItemOp = "add"
	ItemOpRemove ItemOp = "remove"
)

// ItemEdit is an add or remove request on an order's items.
type ItemEdit struct {
	Op           ItemOp
	Items        []string
	TrackingCode string
}

// ParseItemEdit reports whether text asks to add or remove items. Items may
// be empty when the keyword is present but nothing follows it.
func ParseItemEdit(text string) (ItemEdit, bool) {
	loc := editKeywordPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return ItemEdit{}, false
	}
	edit := ItemEdit{
		Op:           ItemOp(strings.ToLower(text[loc[2]:loc[3]])),
		TrackingCode: router.ExtractTrackingCode(text),
	}

	rest := text[loc[1]:]
	if start, end, ok := router.TrackingCodeSpan(rest); ok {
		if strings.TrimSpace(rest[:start]) != "" {
			rest = rest[:start]
		} else {
			rest = rest[end:]
		}
	}
	rest = itemTrailingPattern.ReplaceAllString(rest, "")
	rest = itemLeadPattern.ReplaceAllString(rest, "")
	rest = strings.TrimRight(strings.TrimSpace(rest), ".!?")

	for _, item := range itemSplitPattern.Split(rest, -1) {
		if item = strings.TrimSpace(item); item != "" {
			edit.Items = append(edit.Items, item)
		}
	}
	return edit, true
}

// SplitItems splits a stored item description into its entries.
func SplitItems(item string) []string {
	items := []string{}
	for _, part := range strings.Split(item, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// ApplyItemEdit returns the item description after the edit. Add appends;
// remove drops entries exactly equal to an edit item.
func ApplyItemEdit(existing string, edit ItemEdit) string {
	items := SplitItems(existing)

	switch edit.Op {
	case ItemOpAdd:
		items = append(items, edit.Items...)
	case ItemOpRemove:
		kept := items[:0]
		for _, item := range items {
			if !slices.Contains(edit.Items, item) {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	return strings.Join(items, ", ")
}
