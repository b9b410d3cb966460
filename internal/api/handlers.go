package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/starford/prophist/internal/apperr"
	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/render"
)

// Handler holds API route handlers.
type Handler struct {
	svc *historyservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *historyservice.Service) *Handler {
	return &Handler{svc: svc}
}

func queryLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", apperr.ErrInvalidRequest)
	}
	return n, nil
}

// PropertyHistory handles GET /api/history.
//
//	@Summary		Timeline of one property of one object in an asset
//	@Tags			history
//	@Produce		json
//	@Param			asset	query		string	true	"Asset path relative to the repository root"
//	@Param			anchor	query		string	true	"Object anchor id"
//	@Param			path	query		string	true	"Property path, e.g. m_Items.Array.data[0]"
//	@Param			limit	query		int		false	"Revisions to scan, newest first"
//	@Success		200		{object}	HistoryResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) PropertyHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	res, err := h.svc.PropertyHistory(r.Context(), historyservice.Request{
		Asset:    q.Get("asset"),
		AnchorID: q.Get("anchor"),
		Path:     q.Get("path"),
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, render.NewReport(res))
}

// Revisions handles GET /api/revisions.
//
//	@Summary		Revisions that touched an asset, newest first
//	@Tags			history
//	@Produce		json
//	@Param			asset	query		string	true	"Asset path"
//	@Param			limit	query		int		false	"Maximum revisions"
//	@Success		200		{object}	RevisionsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/revisions [get]
func (h *Handler) Revisions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset := r.URL.Query().Get("asset")
	revs, err := h.svc.Revisions(r.Context(), asset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RevisionsResponse{Asset: asset, Revisions: render.NewRevisions(revs)})
}

// Objects handles GET /api/objects.
//
//	@Summary		Anchored objects of an asset at a revision
//	@Tags			history
//	@Produce		json
//	@Param			asset		query		string	true	"Asset path"
//	@Param			revision	query		string	false	"Revision id (default newest)"
//	@Success		200			{object}	ObjectsResponse
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/objects [get]
func (h *Handler) Objects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Objects(r.Context(), q.Get("asset"), q.Get("revision"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newObjectsResponse(res))
}
