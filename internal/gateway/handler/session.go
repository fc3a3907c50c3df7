// Package handler exposes the workflow over HTTP and websocket.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/ritik9294/catalog-assistant-v3/internal/export"
	"github.com/ritik9294/catalog-assistant-v3/internal/imageutil"
	"github.com/ritik9294/catalog-assistant-v3/internal/listing"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/util/jsonutil"
	"github.com/ritik9294/catalog-assistant-v3/internal/workflow"
)

// maxUploadBytes bounds a product photo upload.
const maxUploadBytes = 32 << 20

// SessionHandler serves the session lifecycle and event endpoints.
// Each session is advanced under its own lock; the engine itself is
// stateless.
type SessionHandler struct {
	sessions *session.Store
	engine   *workflow.Engine
	exports  *export.S3Store
	hub      *Hub

	locks sync.Map
}

func NewSessionHandler(sessions *session.Store, engine *workflow.Engine, exports *export.S3Store, hub *Hub) *SessionHandler {
	return &SessionHandler{sessions: sessions, engine: engine, exports: exports, hub: hub}
}

func (h *SessionHandler) lock(id string) *sync.Mutex {
	mu, _ := h.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("gateway: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) (*session.Context, bool) {
	id := r.PathValue("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown session %q", id))
		return nil, false
	}
	return s, true
}

// HandleCreate starts a new session.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	log.Printf("gateway: created %s", s.ID)
	writeJSON(w, http.StatusCreated, listing.Render(s))
}

// HandleDelete drops a session.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.sessions.Delete(id)
	h.locks.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleView returns the current render state.
func (h *SessionHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	mu := h.lock(s.ID)
	mu.Lock()
	v := listing.Render(s)
	mu.Unlock()
	writeJSON(w, http.StatusOK, v)
}

// HandleUpload accepts a product photo as multipart form data under the
// "image" field and starts identification.
func (h *SessionHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}
	mime := header.Header.Get("Content-Type")

	h.advance(w, r, s, workflow.UploadImage{Data: data, MIME: mime})
}

// eventEnvelope is the wire shape of POSTed events.
type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HandleEvent applies one user event to the session.
func (h *SessionHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	var env eventEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode event: %v", err))
		return
	}
	ev, err := workflow.ParseEvent(strings.TrimSpace(env.Type), env.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if upd, ok := ev.(workflow.UpdateListing); ok {
		upd.Listing = listing.Sanitize(upd.Listing)
		ev = upd
	}
	h.advance(w, r, s, ev)
}

// advance runs the engine under the session lock and replies with the
// refreshed view.
func (h *SessionHandler) advance(w http.ResponseWriter, r *http.Request, s *session.Context, ev workflow.Event) {
	mu := h.lock(s.ID)
	mu.Lock()
	err := h.engine.Advance(r.Context(), s, ev)
	v := listing.Render(s)
	mu.Unlock()

	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrUnexpectedEvent):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, workflow.ErrBadInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, workflow.ErrRetryBudget):
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			log.Printf("gateway: advance %s: %v", s.ID, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	h.hub.Broadcast(s.ID, v)
	writeJSON(w, http.StatusOK, v)
}

// HandleUsage returns the session's usage ledger snapshot.
func (h *SessionHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Usage.Snapshot())
}

// HandleUsageReset zeroes the cost tracker on explicit request.
func (h *SessionHandler) HandleUsageReset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	s.Usage.Zero()
	writeJSON(w, http.StatusOK, s.Usage.Snapshot())
}

// HandleEnhancedImage serves the enhancement preview awaiting approval.
func (h *SessionHandler) HandleEnhancedImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	mu := h.lock(s.ID)
	mu.Lock()
	data := s.EnhancedImageBytes
	mu.Unlock()
	if len(data) == 0 {
		writeError(w, http.StatusNotFound, "no enhanced image pending")
		return
	}
	w.Header().Set("Content-Type", imageutil.DefaultMIME)
	_, _ = w.Write(data)
}

// HandleDownload serves the final images: ?image=N for a single one,
// otherwise a zip archive of all of them.
func (h *SessionHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	mu := h.lock(s.ID)
	images := func() [][]byte {
		mu.Lock()
		defer mu.Unlock()
		return s.FinalImages
	}()
	if len(images) == 0 {
		writeError(w, http.StatusNotFound, "no listing images yet")
		return
	}

	if raw := r.URL.Query().Get("image"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 || idx >= len(images) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("image index %q out of range", raw))
			return
		}
		mime := imageutil.DefaultMIME
		if idx == 0 && s.ImageMIME != "" {
			mime = s.ImageMIME
		}
		w.Header().Set("Content-Type", mime)
		_, _ = w.Write(images[idx])
		return
	}

	name := s.SelectedProduct
	if name == "" {
		name = "listing"
	}
	archive, err := imageutil.ZipImages(name, images)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("zip images: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="listing_images.zip"`)
	_, _ = w.Write(archive)
}

// HandleExport pushes the finished listings and images to the object
// store and returns shareable links.
func (h *SessionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.get(w, r)
	if !ok {
		return
	}
	if h.exports == nil {
		writeError(w, http.StatusNotImplemented, "export store is not configured")
		return
	}

	mu := h.lock(s.ID)
	mu.Lock()
	results := s.AllFinalListings
	if len(results) == 0 && s.FinalListing != nil {
		results = []session.ListingResult{{
			Listing:  *s.FinalListing,
			Images:   s.FinalImages,
			MIMEType: s.ImageMIME,
		}}
	}
	mu.Unlock()
	if len(results) == 0 {
		writeError(w, http.StatusConflict, "no finished listing to export")
		return
	}

	urls := make([]string, 0, len(results)*2)
	for i, res := range results {
		body, err := jsonutil.MarshalNoEscape(res.Listing)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("encode listing: %v", err))
			return
		}
		u, err := h.exports.Put(r.Context(), s.ID, fmt.Sprintf("listing_%d.json", i), body, "application/json")
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("export listing: %v", err))
			return
		}
		urls = append(urls, u)
		for j, img := range res.Images {
			mime := imageutil.DefaultMIME
			if j == 0 && res.MIMEType != "" {
				mime = res.MIMEType
			}
			u, err := h.exports.Put(r.Context(), s.ID, fmt.Sprintf("listing_%d_image_%d", i, j), img, mime)
			if err != nil {
				writeError(w, http.StatusBadGateway, fmt.Sprintf("export image: %v", err))
				return
			}
			urls = append(urls, u)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"urls": urls})
}
