package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/access"
	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/notes"
)

const maxBodyBytes = 1 << 20

// Handler holds note route handlers.
type Handler struct {
	notes  *notes.Repository
	search *notes.Searcher
}

// NewHandler creates a new Handler.
func NewHandler(repo *notes.Repository, search *notes.Searcher) *Handler {
	return &Handler{notes: repo, search: search}
}

func etag(n *Note) string {
	return `"` + strconv.FormatInt(n.Version, 10) + `"`
}

// ifMatchVersion parses an If-Match header holding a note version. An absent
// header or "*" yields 0, meaning any version.
func ifMatchVersion(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" || v == "*" {
		return 0, nil
	}
	v = strings.Trim(strings.TrimPrefix(v, "W/"), `"`)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.Validation("invalid If-Match header")
	}
	return n, nil
}

func writeNote(w http.ResponseWriter, status int, n *Note) {
	w.Header().Set("ETag", etag(n))
	writeJSON(w, status, n)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes the caller owns or has been shared on
//	@Tags			notes
//	@Produce		json
//	@Success		200	{array}		Note
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.notes.ListVisible(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "get note", err)
		return
	}
	writeNote(w, http.StatusOK, n)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	n, err := h.notes.Create(r.Context(), actor(r), req.Title, req.Content)
	if err != nil {
		writeError(w, r, "create note", err)
		return
	}
	writeNote(w, http.StatusCreated, n)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update title and/or content
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"Version from the note's ETag"
//	@Param			body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200			{object}	Note
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	ch, err := notes.DecodeChanges(body)
	if err != nil {
		writeError(w, r, "update note", err)
		return
	}
	version, err := ifMatchVersion(r)
	if err != nil {
		writeError(w, r, "update note", err)
		return
	}
	n, err := h.notes.Update(r.Context(), actor(r), chi.URLParam(r, "id"), ch, version)
	if err != nil {
		writeError(w, r, "update note", err)
		return
	}
	writeNote(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note, or leave it when shared with the caller
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	Note	"Deleted note, or a MessageResponse for a shared user"
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	res, err := h.notes.Delete(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "delete note", err)
		return
	}
	if res.Outcome == access.DeleteNote {
		writeJSON(w, http.StatusOK, res.Note)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: res.Message})
}

// ShareNote handles POST /api/notes/{id}/share.
//
//	@Summary		Share a note with another user
//	@Tags			sharing
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		ShareRequest	true	"User to share with"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/share [post]
func (h *Handler) ShareNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.notes.Share(r.Context(), actor(r), chi.URLParam(r, "id"), req.UserID); err != nil {
		writeError(w, r, "share note", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Note shared successfully"})
}

// UnshareNote handles DELETE /api/notes/{id}/share/{userId}.
//
//	@Summary		Revoke a user's access to a note
//	@Tags			sharing
//	@Produce		json
//	@Param			id		path		string	true	"Note id"
//	@Param			userId	path		string	true	"User to remove"
//	@Success		200		{object}	MessageResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/share/{userId} [delete]
func (h *Handler) UnshareNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Unshare(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "userId")); err != nil {
		writeError(w, r, "unshare note", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Note unshared successfully"})
}

// Search handles GET /api/notes/search.
//
//	@Summary		Full-text search across visible notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results (default 50, max 200)"
//	@Success		200		{array}		Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.search.SearchN(r.Context(), actor(r), q, limit)
	if err != nil {
		writeError(w, r, "search notes", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
