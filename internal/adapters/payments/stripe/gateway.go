package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/artfolio/internal/domain"
)

const DefaultAPIURL = "https://api.stripe.com"

// Gateway creates hosted Checkout Sessions through the Stripe REST API.
type Gateway struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

func NewGateway(secretKey, apiURL string) *Gateway {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Gateway{
		secretKey:  secretKey,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sessionResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResp struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (g *Gateway) CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if g.secretKey == "" {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY not set", domain.ErrPaymentUnavailable)
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(int64(math.Round(req.Price*100)), 10))
	form.Set("line_items[0][price_data][product_data][name]", req.ArtworkTitle)
	form.Set("metadata[artworkId]", req.ArtworkID)
	form.Set("metadata[artworkTitle]", req.ArtworkTitle)
	if req.SuccessURL != "" {
		form.Set("success_url", req.SuccessURL)
	}
	if req.CancelURL != "" {
		form.Set("cancel_url", req.CancelURL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		var e errorResp
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return nil, fmt.Errorf("%w: stripe status %d: %s", domain.ErrPaymentUnavailable, res.StatusCode, e.Error.Message)
		}
		return nil, fmt.Errorf("%w: stripe status %d: %s", domain.ErrPaymentUnavailable, res.StatusCode, string(body))
	}
	var s sessionResp
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: decode session: %w", domain.ErrPaymentUnavailable, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: session without id", domain.ErrPaymentUnavailable)
	}
	log.Info().Str("session", s.ID).Str("artwork", req.ArtworkID).Msg("checkout session created")
	return &domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func validate(req domain.CheckoutRequest) error {
	switch {
	case strings.TrimSpace(req.ArtworkID) == "":
		return domain.NewValidationError("artworkId", "Missing required fields")
	case strings.TrimSpace(req.ArtworkTitle) == "":
		return domain.NewValidationError("artworkTitle", "Missing required fields")
	case req.Price <= 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0):
		return domain.NewValidationError("price", "Missing required fields")
	}
	return nil
}
