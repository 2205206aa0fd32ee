// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"mars_poster/internal/adapters/imagefetch"
	"mars_poster/internal/app"
	"mars_poster/internal/domain"
	"mars_poster/internal/upload"
)

type Handlers struct {
	Editor    *app.EditorService
	Preview   *app.PreviewService
	Export    *app.ExportService
	Uploads   *upload.Decoder
	ExportRPS float64
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/layouts", h.listLayouts)
		r.Get("/layouts/{id}", h.getLayout)
		r.Post("/derive", h.derive)
		r.Get("/exports", h.listExports)

		r.Post("/sessions", h.openSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.closeSession)
			r.Patch("/fields", h.editFields)
			r.Put("/layout", h.changeLayout)
			r.Put("/image", h.setImage)
			r.Delete("/image", h.clearImage)
			r.Get("/preview", h.preview)
			r.Get("/preview.html", h.previewHTML)
			r.With(RateLimit(h.ExportRPS)).Post("/export", h.export)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	status, title := http.StatusInternalServerError, "Internal Server Error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, title = http.StatusNotFound, "Not Found"
	case errors.Is(err, domain.ErrUnknownLayout):
		status, title = http.StatusBadRequest, "Unknown Layout"
	case errors.Is(err, domain.ErrUnknownField):
		status, title = http.StatusBadRequest, "Unknown Field"
	case errors.Is(err, domain.ErrBadScale):
		status, title = http.StatusBadRequest, "Invalid Scale"
	case errors.Is(err, imagefetch.ErrBadURL):
		status, title = http.StatusBadRequest, "Invalid Image URL"
	case errors.Is(err, domain.ErrImageTooLarge):
		status, title = http.StatusRequestEntityTooLarge, "Image Too Large"
	case errors.Is(err, domain.ErrBadImage):
		status, title = http.StatusUnprocessableEntity, "Unreadable Image"
	case errors.Is(err, domain.ErrExportDisabled):
		status, title = http.StatusServiceUnavailable, "Export History Disabled"
	case errors.Is(err, context.DeadlineExceeded):
		status, title = http.StatusGatewayTimeout, "Timeout"
	}
	if status >= 500 {
		log.Error().Err(err).Str("err_type", fmt.Sprintf("%T", err)).Msg("request failed")
		writeProblem(w, status, title, "")
		return
	}
	writeProblem(w, status, title, err.Error())
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	// If client already has this version, short-circuit.
	if r.Method == http.MethodGet && etag != "" && r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func layoutParam(s string) (domain.LayoutID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("layout %q: %w", s, domain.ErrUnknownLayout)
	}
	return domain.LayoutID(n), nil
}

// ---- layouts ----

func (h *Handlers) listLayouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"items": h.Preview.Layouts()})
}

func (h *Handlers) getLayout(w http.ResponseWriter, r *http.Request) {
	id, err := layoutParam(chi.URLParam(r, "id"))
	if err == nil {
		var info domain.LayoutInfo
		if info, err = h.Preview.Layout(id); err == nil {
			writeJSON(w, r, http.StatusOK, info)
			return
		}
	}
	writeProblem(w, http.StatusNotFound, "Not Found", "layout not found")
}

// ---- stateless ----

type deriveRequest struct {
	LayoutID domain.LayoutID `json:"layout_id"`
	Fields   map[string]any  `json:"fields"`
}

func (h *Handlers) derive(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if req.LayoutID == 0 {
		req.LayoutID = 1
	}
	rec, err := app.MapRecord(domain.ListingRecord{}, req.Fields)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.Preview.Derive(req.LayoutID, rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (h *Handlers) listExports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	rows, err := h.Export.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": rows})
}

// ---- sessions ----

type layoutRequest struct {
	LayoutID domain.LayoutID `json:"layout_id"`
}

func (h *Handlers) openSession(w http.ResponseWriter, r *http.Request) {
	req := layoutRequest{LayoutID: 1}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
			return
		}
	}
	s, err := h.Editor.Open(r.Context(), req.LayoutID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID)
	writeJSON(w, r, http.StatusCreated, s)
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Editor.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s)
}

func (h *Handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Editor.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) editFields(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	edits, err := app.MapEdits(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.Editor.ApplyEdits(r.Context(), chi.URLParam(r, "id"), edits)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s)
}

func (h *Handlers) changeLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	s, err := h.Editor.ChangeLayout(r.Context(), chi.URLParam(r, "id"), req.LayoutID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s)
}

type imageRequest struct {
	DataURL string `json:"data_url"`
	URL     string `json:"url"`
}

// setImage accepts a multipart "file" part, a JSON {data_url}/{url} body or
// the raw image bytes.
func (h *Handlers) setImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	// base64 inflates by 4/3; leave headroom for multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, h.Uploads.MaxBytes*4/3+64<<10)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		img *domain.UploadedImage
		err error
	)
	switch {
	case mt == "multipart/form-data":
		f, _, ferr := r.FormFile("file")
		if ferr != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Upload", "multipart body needs a file part")
			return
		}
		defer f.Close()
		img, err = h.Uploads.Read(f)
	case mt == "application/json":
		var req imageRequest
		if derr := decodeJSON(r, &req); derr != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", derr.Error())
			return
		}
		switch {
		case strings.TrimSpace(req.DataURL) != "":
			img, err = h.Uploads.ParseDataURL(req.DataURL)
		case strings.TrimSpace(req.URL) != "":
			s, ferr := h.Editor.SetImageFromURL(ctx, id, req.URL)
			if ferr != nil {
				writeError(w, ferr)
				return
			}
			writeJSON(w, r, http.StatusOK, s)
			return
		default:
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "data_url or url is required")
			return
		}
	default:
		img, err = h.Uploads.Read(r.Body)
	}
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			err = domain.ErrImageTooLarge
		}
		writeError(w, err)
		return
	}
	s, err := h.Editor.SetImage(ctx, id, img)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s)
}

func (h *Handlers) clearImage(w http.ResponseWriter, r *http.Request) {
	s, err := h.Editor.ClearImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s)
}

// ---- preview & export ----

func (h *Handlers) preview(w http.ResponseWriter, r *http.Request) {
	pv, err := h.Preview.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pv)
}

func (h *Handlers) previewHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Preview.HTML(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(doc)
}

func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	var scale float64
	if v := r.URL.Query().Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Scale", "scale must be a number")
			return
		}
		scale = f
	}
	res, err := h.Export.Export(r.Context(), chi.URLParam(r, "id"), scale)
	if err != nil {
		writeError(w, err)
		return
	}
	cache := "MISS"
	if res.CacheHit {
		cache = "HIT"
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.Header().Set("X-Cache", cache)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.PNG); err != nil {
		log.Error().Err(err).Msg("failed to write export body")
	}
}
