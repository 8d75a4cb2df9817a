package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/phenrril/artfolio/internal/domain"
	"github.com/phenrril/artfolio/internal/usecase"
)

type uploadResponse struct {
	OK    bool                `json:"ok"`
	Item  *domain.CatalogItem `json:"item,omitempty"`
	Error string              `json:"error,omitempty"`
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "admin.html", map[string]any{"Title": "Admin"})
}

// headerToken reads the admin token from X-Admin-Token, a bearer
// Authorization header or the token query parameter.
func headerToken(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get("X-Admin-Token")); tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	// A wrong header token is refused before the body is read.
	token := headerToken(r)
	if token != "" {
		if err := s.ingest.Authorize(token); err != nil {
			s.uploadError(w, r, err)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)
	err := r.ParseMultipartForm(s.opts.UploadMemory)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.uploadError(w, r, domain.NewValidationError("image", "upload is too large"))
			return
		}
		s.uploadError(w, r, domain.NewValidationError("", "invalid multipart form"))
		return
	}
	if token == "" {
		token = strings.TrimSpace(r.FormValue("token"))
	}
	if err := s.ingest.Authorize(token); err != nil {
		s.uploadError(w, r, err)
		return
	}

	sub := usecase.Submission{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Year:        r.FormValue("year"),
		Date:        r.FormValue("date"),
		Medium:      r.FormValue("medium"),
		Dimensions:  r.FormValue("dimensions"),
		Price:       r.FormValue("price"),
		Description: r.FormValue("description"),
		Featured:    r.FormValue("featured"),
		Available:   r.FormValue("available"),
	}
	if f, fh, err := r.FormFile("image"); err == nil {
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.uploadError(w, r, err)
			return
		}
		sub.Image = data
		sub.Filename = fh.Filename
	}

	item, err := s.ingest.Ingest(r.Context(), token, sub)
	if err != nil {
		s.uploadError(w, r, err)
		return
	}
	s.catalog.Invalidate()
	writeJSON(w, http.StatusOK, uploadResponse{OK: true, Item: item})
}

func (s *Server) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		requestLogger(r).Error().Err(err).Msg("upload failed")
	} else {
		requestLogger(r).Warn().Err(err).Int("status", code).Msg("upload rejected")
	}
	writeJSON(w, code, uploadResponse{OK: false, Error: publicMessage(err, "Upload failed")})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if err := s.ingest.Authorize(headerToken(r)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}
	items := s.catalog.Snapshot(r.Context()).Items()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.xlsx"`)
	if err := writeCatalogXLSX(w, items); err != nil {
		requestLogger(r).Error().Err(err).Msg("xlsx export")
	}
}
