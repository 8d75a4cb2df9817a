package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/phenrril/artfolio/internal/domain"
)

// apiCreateCheckoutSession starts a hosted checkout for one artwork. Title
// and price always come from the catalog; client-sent values are ignored.
func (s *Server) apiCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.payments == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "Payments are not configured"})
		return
	}
	var req domain.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	if req.ArtworkID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing required fields"})
		return
	}
	v, ok := s.catalog.Snapshot(r.Context()).Detail(req.ArtworkID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Artwork not found"})
		return
	}
	if !v.Purchasable {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "This work is not available for purchase"})
		return
	}
	req.ArtworkTitle = v.Item.Title
	req.Price = *v.Item.Price
	base := s.baseURL(r)
	if req.SuccessURL == "" {
		req.SuccessURL = base + "/detail?id=" + url.QueryEscape(req.ArtworkID) + "&checkout=success"
	}
	if req.CancelURL == "" {
		req.CancelURL = base + "/detail?id=" + url.QueryEscape(req.ArtworkID)
	}

	sess, err := s.payments.CreateSession(r.Context(), req)
	if err != nil {
		code := statusFor(err)
		if errors.Is(err, domain.ErrPaymentUnavailable) {
			code = http.StatusBadGateway
		}
		requestLogger(r).Error().Err(err).Str("artwork", req.ArtworkID).Msg("checkout session")
		writeJSON(w, code, map[string]any{"error": publicMessage(err, "Payment provider unavailable")})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) baseURL(r *http.Request) string {
	if s.opts.PublicBaseURL != "" {
		return strings.TrimSuffix(s.opts.PublicBaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
