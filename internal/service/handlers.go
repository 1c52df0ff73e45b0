package service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/skip2/go-qrcode"

	"linktrail/internal/types"
)

const (
	defaultQRSize = 300
	maxQRSize     = 2000
	maxBodyBytes  = 1 << 20
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	e := AsError(err)
	writeJSON(w, e.Status(), errorBody{Error: e.Message, Code: string(e.Code)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return newError(CodeValidation, "Invalid JSON body")
	}
	return nil
}

// queryInt reads a positive integer query parameter; absent is 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, newError(CodeValidation, name+" must be a positive integer")
	}
	return n, nil
}

func pageQuery(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func (s *Server) handlerHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlerCreateLink(w http.ResponseWriter, r *http.Request) {
	var req types.CreateLinkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	link, err := s.shortener.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (s *Server) handlerListLinks(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	links, err := s.shortener.List(r.Context(), page, limit, r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) handlerBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req types.BulkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.shortener.BulkCreate(r.Context(), req.Links))
}

func (s *Server) handlerGetLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.shortener.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handlerUpdateLink(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateLinkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	link, err := s.shortener.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handlerDeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := s.shortener.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlerListClicks(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	clicks, err := s.analytics.ListClicks(r.Context(), r.PathValue("id"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clicks)
}

func (s *Server) handlerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlerQR(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxQRSize {
			writeError(w, newError(CodeValidation, "size must be between 1 and "+strconv.Itoa(maxQRSize)))
			return
		}
		size = n
	}

	link, err := s.shortener.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := qrcode.Encode(link.ShortURL, qrcode.Medium, size)
	if err != nil {
		slog.Error("Failed to render QR code", "error", err, "link_id", link.ID)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handlerRedirect(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		writeError(w, errLinkNotFound)
		return
	}

	meta := RequestMeta{
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RealIP:       r.Header.Get("X-Real-IP"),
		UserAgent:    r.UserAgent(),
		Referrer:     r.Referer(),
	}
	if q := r.URL.Query(); q.Has("password") {
		password := q.Get("password")
		meta.Password = &password
	}

	redirect, err := s.resolver.Resolve(r.Context(), slug, meta)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect.URL, redirect.Status)
}
