package api

import (
	"encoding/json"
	"net/http"

	"github.com/chris9740/swiftdns/domain"
	"github.com/go-chi/chi/v5"
	"github.com/semihalev/zlog/v2"
)

type errorResponse struct {
	Error string `json:"error"`
}

type filterResponse struct {
	Name    string `json:"name"`
	Blocked bool   `json:"blocked"`
	Pattern string `json:"pattern,omitempty"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message,omitempty"`
}

type cacheResponse struct {
	Entries int `json:"entries"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error("API response encode failed", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) getFilter(w http.ResponseWriter, r *http.Request) {
	name, err := domain.Parse(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := filterResponse{Name: name.String()}

	if e, blocked := a.filter.Find(name); blocked {
		resp.Blocked = true
		resp.Pattern = e.Rule.Pattern
		resp.Source = e.Rule.Source
		resp.Line = e.Rule.Line
		resp.Message = e.Message()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) getCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cacheResponse{Entries: a.cache.Len()})
}

func (a *API) purgeCache(w http.ResponseWriter, r *http.Request) {
	a.cache.Purge()
	zlog.Info("Cache purged")

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (a *API) removeCache(w http.ResponseWriter, r *http.Request) {
	name, err := domain.Parse(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t, err := domain.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	q := domain.Question{Name: name, Type: t}
	a.cache.Remove(q)
	zlog.Info("Cache entry removed", "query", q.String())

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
