package domain

import "context"

// CheckoutRequest is the payload the buy button sends for a single artwork.
type CheckoutRequest struct {
	ArtworkID    string  `json:"artworkId"`
	ArtworkTitle string  `json:"artworkTitle"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	SuccessURL   string  `json:"successUrl"`
	CancelURL    string  `json:"cancelUrl"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// PaymentGateway creates hosted checkout sessions with an external provider.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
