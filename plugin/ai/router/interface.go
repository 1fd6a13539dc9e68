// Package router maps an utterance to one intent of a closed taxonomy.
package router

import "context"

// ClassifierService defines the intent classification interface.
// Consumers: the assistant dispatcher.
type ClassifierService interface {
	// Classify returns the intent of the text and any tracking code it mentions.
	// It is a pure function of the text.
	Classify(ctx context.Context, text string) Classification
}

// Intent represents the type of user intent.
type Intent string

const (
	IntentCreateOrder     Intent = "create_order"
	IntentTrackOrder      Intent = "track_order"
	IntentNextPickup      Intent = "next_pickup"
	IntentListOrders      Intent = "list_orders"
	IntentCancelOrder     Intent = "cancel_order"
	IntentUpdateAddress   Intent = "update_address"
	IntentRoadAlert       Intent = "road_alert"
	IntentEarnings        Intent = "earnings"
	IntentPenalty         Intent = "penalty"
	IntentBusinessGrowth  Intent = "business_growth"
	IntentOnboardingHelp  Intent = "onboarding_help"
	IntentEmergency       Intent = "emergency"
	IntentGuideChallan    Intent = "guide_challan"
	IntentGuideDigiLocker Intent = "guide_digilocker"
	IntentInsurance       Intent = "insurance"
	IntentCustomerService Intent = "customer_service"
	IntentGeneral         Intent = "general"
)

// AllIntents lists the closed taxonomy.
func AllIntents() []Intent {
	return []Intent{
		IntentCreateOrder, IntentTrackOrder, IntentNextPickup, IntentListOrders,
		IntentCancelOrder, IntentUpdateAddress, IntentRoadAlert, IntentEarnings,
		IntentPenalty, IntentBusinessGrowth, IntentOnboardingHelp, IntentEmergency,
		IntentGuideChallan, IntentGuideDigiLocker, IntentInsurance, IntentCustomerService,
		IntentGeneral,
	}
}

// Classification is the transient result of classifying one utterance.
type Classification struct {
	Intent Intent `json:"intent"`
	// TrackingCode is empty when the text carries no code.
	TrackingCode string `json:"trackingId,omitempty"`
}

// HasTrackingCode reports whether a code was found.
func (c Classification) HasTrackingCode() bool {
	return c.TrackingCode != ""
}
