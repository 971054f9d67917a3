package model

// Wire types for the slice of the Stripe API this service touches.

type CheckoutSessionObject struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

type PaymentIntentObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type AccountObject struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

type AccountLinkObject struct {
	URL string `json:"url"`
}

// EventResource is the union of the fields the reconciler reads out of
// data.object across the event types it handles.
type EventResource struct {
	ID             string            `json:"id"`
	PaymentIntent  string            `json:"payment_intent"`
	Metadata       map[string]string `json:"metadata"`
	ChargesEnabled bool              `json:"charges_enabled"`
	PayoutsEnabled bool              `json:"payouts_enabled"`
}

type EventData struct {
	Object EventResource `json:"object"`
}

type StripeEvent struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentFailed      = "payment_intent.payment_failed"
	EventAccountUpdated           = "account.updated"
)

// MetadataOrderID is the metadata key carrying our order id on checkout
// sessions and payment intents.
const MetadataOrderID = "orderId"
