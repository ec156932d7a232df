package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/voyagen/m3uforge/internal/cache"
	"github.com/voyagen/m3uforge/internal/models"
	"github.com/voyagen/m3uforge/internal/service"
	"go.uber.org/zap"
)

// --- playlist handlers ---

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	docs, err := s.editor.List(r.Context())
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

type createPlaylistRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// handleCreatePlaylist creates an empty playlist, imports one from a URL, or
// parses an uploaded M3U body, depending on the request content type.
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if !isJSON(r) {
		doc, err := s.editor.Upload(r.Context(), r.URL.Query().Get("name"), r.Body)
		if err != nil {
			s.writeServiceErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
		return
	}

	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, bodyErrStatus(err), err)
		return
	}

	if req.URL == "" {
		doc, err := s.editor.Create(r.Context(), req.Name)
		if err != nil {
			s.writeServiceErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
		return
	}

	if err := validateURL(req.URL); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	if s.rds == nil {
		doc, err := s.editor.ImportURL(r.Context(), req.Name, req.URL)
		if err != nil {
			s.writeServiceErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
		return
	}

	doc, err := s.editor.CreateForURL(r.Context(), req.Name, req.URL)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	if err := cache.Enqueue(r.Context(), s.rds, cache.DefaultQueue, cache.ImportJob{DocumentID: doc.ID, URL: req.URL}); err != nil {
		// Nothing will ever fill the placeholder.
		if derr := s.editor.Delete(r.Context(), doc.ID); derr != nil {
			s.log.Warn("delete unqueued playlist", zap.Int64("id", doc.ID), zap.Error(derr))
		}
		s.log.Error("enqueue import", zap.Int64("id", doc.ID), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("enqueue import: %w", err))
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	doc, err := s.editor.Get(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDownloadPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	filename, content, err := s.editor.Export(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	w.Header().Set("Content-Type", models.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

type updatePlaylistRequest struct {
	Name        *string         `json:"name"`
	URLTvg      *string         `json:"url_tvg"`
	Cache       *int            `json:"cache"`
	Refresh     *int            `json:"refresh"`
	Deinterlace json.RawMessage `json:"deinterlace"` // "blend" or 1
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	var req updatePlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	u := service.HeaderUpdate{
		Name:    req.Name,
		URLTvg:  req.URLTvg,
		Cache:   req.Cache,
		Refresh: req.Refresh,
	}
	if len(req.Deinterlace) > 0 && string(req.Deinterlace) != "null" {
		d, err := models.ParseDeinterlace(strings.Trim(string(req.Deinterlace), `"`))
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		u.Deinterlace = &d
	}

	doc, err := s.editor.UpdateHeader(r.Context(), id, u)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.editor.Delete(r.Context(), id); err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeNoContent(w)
}

type refreshRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleRefreshPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.URL != "" {
		if err := validateURL(req.URL); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
	}

	if s.rds != nil && r.URL.Query().Get("async") == "true" {
		if err := cache.Enqueue(r.Context(), s.rds, cache.DefaultQueue, cache.ImportJob{DocumentID: id, URL: req.URL}); err != nil {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("enqueue import: %w", err))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "queued": true})
		return
	}

	doc, err := s.editor.Refresh(r.Context(), id, req.URL)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// --- entry handlers ---

// entryRequest mirrors models.Entry; a missing duration means unknown (-1).
type entryRequest struct {
	Duration *int             `json:"duration"`
	Title    string           `json:"title"`
	FilePath string           `json:"file_path"`
	Grouping *string          `json:"grouping"`
	Metadata *models.Metadata `json:"metadata"`
}

func (req entryRequest) entry() models.Entry {
	e := models.NewEntry(req.Title, req.FilePath)
	if req.Duration != nil {
		e.Duration = *req.Duration
	}
	e.Grouping = req.Grouping
	e.Metadata = req.Metadata
	return e
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	var entry *models.Entry
	if r.ContentLength != 0 {
		var req entryRequest
		err := decodeJSON(r, &req)
		switch {
		case errors.Is(err, io.EOF):
			// empty body: default entry
		case err != nil:
			writeErr(w, http.StatusBadRequest, err)
			return
		default:
			e := req.entry()
			entry = &e
		}
	}

	doc, err := s.editor.AddEntry(r.Context(), id, entry)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, index, err := parseEntryPath(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	doc, err := s.editor.UpdateEntry(r.Context(), id, index, req.entry())
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	id, index, err := parseEntryPath(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	doc, err := s.editor.RemoveEntry(r.Context(), id, index)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	s.log.Debug("entry removed", zap.Int64("id", id), zap.Int("index", index))
	writeJSON(w, http.StatusOK, doc)
}

// --- request helpers ---

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

// bodyErrStatus is 413 for a body cut off by http.MaxBytesReader, else 400.
func bodyErrStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func validateURL(raw string) error {
	if u, err := url.ParseRequestURI(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("url must be a valid http or https URL")
	}
	return nil
}
