package router

import (
	"regexp"
	"strings"
)

// Rule binds an intent to the patterns that trigger it.
type Rule struct {
	Intent   Intent
	Patterns []*regexp.Regexp
}

// Matches reports whether any pattern matches text.
func (r Rule) Matches(text string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// trackingCodePattern matches ORD- followed by alphanumerics; the prefix is case-insensitive.
var trackingCodePattern = regexp.MustCompile(`(?i)\bORD-[A-Za-z0-9]+`)

func rx(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}

// DefaultRules returns the rule set in priority order: order creation, tracking,
// pickup query, list, cancel, address update, then the domain topics.
// Each topic has exactly one rule.
func DefaultRules() []Rule {
	return []Rule{
		// The verb must sit next to "order"; "track my new order" is not a create.
		{IntentCreateOrder, rx(
			`\b(create|place|book|make)\s+(an?\s+|the\s+)?(new\s+)?order\b`,
			`\bnew\s+order\s+(for|of)\b`,
			`\bnaya order\b`,
			`\border\s+(banao|karo|bana do)\b`,
		)},
		{IntentTrackOrder, rx(
			`\btrack`,
			`\bstatus\b`,
			`\bwhere is\b`,
			`\bkaha(n)? hai\b`,
		)},
		{IntentNextPickup, rx(
			`\b(next|upcoming) (pickup|order)\b`,
			`\bagla (pickup|order)\b`,
		)},
		{IntentListOrders, rx(
			`\b(list|show|all|my|recent)\b.*\borders\b`,
			`\borders\s+dikhao\b`,
		)},
		{IntentCancelOrder, rx(
			`\bcancel`,
			`\bradd karo\b`,
		)},
		{IntentUpdateAddress, rx(
			`\b(update|change|badlo|badal)\b.*\baddress\b`,
			`\baddress\b.*\b(update|change|badlo|badal)\b`,
			`\bnew\s+address\b`,
		)},
		{IntentRoadAlert, rx(
			`\btraffic (jam|alert)\b`,
			`\broad (alert|block|blocked|closed)\b`,
			`\bdiversion\b`,
			`\bjam (hai|laga)\b`,
		)},
		{IntentEarnings, rx(
			`\bearn`,
			`\bincome\b`,
			`\bkamai\b`,
		)},
		{IntentPenalty, rx(
			`\bpenalt`,
			`\bdeduction`,
			`\blate fee\b`,
		)},
		{IntentBusinessGrowth, rx(
			`\bgrowth\b`,
			`\bbusiness\b`,
			`\bcompare\b.*\bweek\b`,
		)},
		{IntentOnboardingHelp, rx(
			`\bonboard`,
			`\bget started\b`,
			`\bsign ?up\b`,
			`\bjoin\b`,
		)},
		{IntentEmergency, rx(
			`\bemergency\b`,
			`\baccident\b`,
			`\bsos\b`,
			`\binjur`,
		)},
		{IntentGuideChallan, rx(
			`\bchallan\b`,
			`\btraffic fine\b`,
		)},
		{IntentGuideDigiLocker, rx(
			`\bdigi ?locker\b`,
			`\bdocuments?\b`,
		)},
		{IntentInsurance, rx(
			`\binsurance\b`,
			`\bbima\b`,
		)},
		{IntentCustomerService, rx(
			`\bcustomer (care|service|support)\b`,
			`\bhelpline\b`,
			`\bcomplaint\b`,
		)},
	}
}

// RuleMatcher classifies text by evaluating rules in order. First match wins.
type RuleMatcher struct {
	rules []Rule
}

// NewRuleMatcher creates a matcher over rules. With no rules it uses DefaultRules.
func NewRuleMatcher(rules ...Rule) *RuleMatcher {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &RuleMatcher{rules: rules}
}

// Match classifies text. No matching rule yields IntentGeneral.
func (m *RuleMatcher) Match(text string) Classification {
	result := Classification{
		Intent:       IntentGeneral,
		TrackingCode: ExtractTrackingCode(text),
	}
	for _, rule := range m.rules {
		if rule.Matches(text) {
			result.Intent = rule.Intent
			break
		}
	}
	return result
}

// ExtractTrackingCode returns the first tracking code in text exactly as
// written, or "". Callers normalize before store lookups.
func ExtractTrackingCode(text string) string {
	loc := trackingCodePattern.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return text[loc[0]:loc[1]]
}

// TrackingCodeSpan returns the byte offsets of the first tracking code in text.
func TrackingCodeSpan(text string) (start, end int, ok bool) {
	loc := trackingCodePattern.FindStringIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// NormalizeTrackingCode upper-cases a code so lookups match minted codes.
func NormalizeTrackingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
