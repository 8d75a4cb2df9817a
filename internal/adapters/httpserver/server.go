package httpserver

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/artfolio/internal/domain"
	"github.com/phenrril/artfolio/internal/usecase"
)

// Options carries settings the handlers need beyond their collaborators.
type Options struct {
	// AssetDir is the site root holding assets/. Empty means assets live in
	// the sink and /assets/ redirects to it.
	AssetDir      string
	ContactEmail  string
	PublicBaseURL string
	UploadMemory  int64
	MaxUpload     int64
}

type Server struct {
	mux      *http.ServeMux
	tmpl     *template.Template
	catalog  *usecase.CatalogUC
	ingest   *usecase.IngestUC
	assets   domain.AssetSink
	payments domain.PaymentGateway
	opts     Options
}

func New(t *template.Template, catalog *usecase.CatalogUC, ingest *usecase.IngestUC, assets domain.AssetSink, pay domain.PaymentGateway, opts Options) http.Handler {
	if opts.UploadMemory <= 0 {
		opts.UploadMemory = 8 << 20
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 40 << 20
	}
	s := &Server{tmpl: t, catalog: catalog, ingest: ingest, assets: assets, payments: pay, opts: opts, mux: http.NewServeMux()}
	s.routes()
	return Chain(s.mux,
		SecurityAndStaticCache,
		Logging,
		Recovery,
		RequestID,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/assets/", s.handleAssets)

	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/gallery", s.handleGallery)
	s.mux.HandleFunc("/detail", s.handleDetail)
	s.mux.HandleFunc("/data.json", s.handleData)
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/admin", s.handleAdmin)
	s.mux.HandleFunc("/admin/upload", s.handleUpload)
	s.mux.HandleFunc("/admin/export.xlsx", s.handleExport)

	s.mux.HandleFunc("/api/create-checkout-session", s.apiCreateCheckoutSession)
}

type card struct {
	Item       domain.CatalogItem
	Image      usecase.ImageChain
	PriceLabel string
}

func (s *Server) cards(r *http.Request, items []domain.CatalogItem) []card {
	out := make([]card, 0, len(items))
	for _, it := range items {
		out = append(out, card{
			Item:       it,
			Image:      usecase.Resolve(r.Context(), usecase.GridImageChain(it), s.prober()),
			PriceLabel: usecase.FormatPrice(it.Price),
		})
	}
	return out
}

// prober checks image candidates on disk. Remote sinks are not probed per
// request; the browser walks data-fallback instead.
func (s *Server) prober() usecase.Prober {
	if s.opts.AssetDir == "" {
		return nil
	}
	return s.assets
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	c := s.catalog.Snapshot(r.Context())
	data := map[string]any{"Title": "Home"}
	if it, ok := c.Featured(); ok {
		data["Featured"] = card{
			Item:       it,
			Image:      usecase.Resolve(r.Context(), usecase.DetailImageChain(it), s.prober()),
			PriceLabel: usecase.FormatPrice(it.Price),
		}
	}
	recent := c.List(usecase.Query{})
	if len(recent) > 6 {
		recent = recent[:6]
	}
	data["Recent"] = s.cards(r, recent)
	s.render(w, http.StatusOK, "home.html", data)
}

var galleryFilters = []struct{ Value, Label string }{
	{usecase.FilterAll, "All"},
	{string(domain.CategoryPainting), "Paintings"},
	{string(domain.CategoryPhotography), "Photography"},
	{usecase.FilterAvailable, "Available"},
}

var gallerySorts = []struct{ Value, Label string }{
	{usecase.SortNew, "Newest"},
	{usecase.SortOld, "Oldest"},
	{usecase.SortPriceHigh, "Price: high to low"},
	{usecase.SortPriceLow, "Price: low to high"},
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	q := usecase.Query{
		Text:   r.URL.Query().Get("q"),
		Filter: usecase.NormalizeFilter(r.URL.Query().Get("filter")),
		Sort:   r.URL.Query().Get("sort"),
	}
	if q.Sort == "" {
		q.Sort = usecase.SortNew
	}
	items := s.catalog.Snapshot(r.Context()).List(q)
	s.render(w, http.StatusOK, "gallery.html", map[string]any{
		"Title":   "Gallery",
		"Query":   q,
		"Filters": galleryFilters,
		"Sorts":   gallerySorts,
		"Cards":   s.cards(r, items),
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	v, ok := s.catalog.Snapshot(r.Context()).Detail(id)
	if !ok {
		s.render(w, http.StatusNotFound, "detail.html", map[string]any{"Title": "Not found", "NotFound": true})
		return
	}
	v.Image = usecase.Resolve(r.Context(), v.Image, s.prober())
	s.render(w, http.StatusOK, "detail.html", map[string]any{
		"Title":    v.Item.Title,
		"View":     v,
		"Inquiry":  inquiryLink(s.opts.ContactEmail, v.Item.Title),
		"Checkout": s.payments != nil && v.Purchasable,
	})
}

func inquiryLink(email, title string) string {
	if email == "" {
		return ""
	}
	q := url.Values{"subject": {"Inquiry: " + title}}
	return "mailto:" + email + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	raw, err := domain.EncodeCatalog(s.catalog.Snapshot(r.Context()).Items())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "encode catalog"})
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleAssets serves files from the site root, or redirects to the object
// store when assets are not kept locally.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	if s.opts.AssetDir != "" {
		http.FileServer(http.Dir(s.opts.AssetDir)).ServeHTTP(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/")
	http.Redirect(w, r, s.assets.URL(key), http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("tpl", name).Msg("render")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text sent to clients. Server-side failures get
// the fixed fallback text; their detail stays in the log.
func publicMessage(err error, fallback string) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	default:
		return fallback
	}
}

func requestLogger(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}
