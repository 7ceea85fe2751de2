package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tasksort/internal/blocks"
	"github.com/starford/tasksort/internal/index"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the wildcard part of the URL.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with optional pagination and filtering
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListNotes(r.Context(), limit, offset, q.Get("tag"))
	if err != nil {
		writeError(w, "list notes", "", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a note with its paragraphs
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeError(w, "get note", path, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Blocks handles GET /api/blocks/*.
//
//	@Summary		Split a note into blocks
//	@Tags			blocks
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	BlocksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blocks/{path} [get]
func (h *Handler) Blocks(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	bs, err := h.svc.Blocks(r.Context(), path)
	if err != nil {
		writeError(w, "blocks", path, err)
		return
	}
	resp := BlocksResponse{Path: path, Blocks: make([]BlockDTO, len(bs))}
	for i, b := range bs {
		resp.Blocks[i] = toBlockDTO(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// BlockAt handles GET /api/block/*.
//
//	@Summary		Get the block around a line
//	@Tags			blocks
//	@Produce		json
//	@Param			path		path		string	true	"Note path"
//	@Param			line		query		int		true	"Zero-based line index"
//	@Param			from_start	query		bool	false	"Start from the enclosing heading"
//	@Param			tight		query		bool	false	"Stop a heading block at the first blank line"
//	@Success		200			{object}	BlockDTO
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/block/{path} [get]
func (h *Handler) BlockAt(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	line, err := strconv.Atoi(r.URL.Query().Get("line"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'line' must be an integer"))
		return
	}
	b, err := h.svc.BlockAt(r.Context(), path, line, blocks.AroundOptions{
		FromStartOfSection: queryBool(r, "from_start"),
		Tight:              queryBool(r, "tight"),
	})
	if err != nil {
		writeError(w, "block at", path, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlockDTO(b))
}

// SortTasks handles POST /api/sort/*.
//
//	@Summary		Resort the tasks of a note
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string		true	"Note path"
//	@Param			body	body		SortRequest	false	"Sort options; omitted fields use the configured defaults"
//	@Success		200		{object}	SortResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sort/{path} [post]
func (h *Handler) SortTasks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.SortTasks(r.Context(), path, req, nil)
	if err != nil {
		writeError(w, "sort tasks", path, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListTasks handles GET /api/tasks.
//
//	@Summary		Query indexed tasks across the vault
//	@Tags			tasks
//	@Produce		json
//	@Param			path	query		string	false	"Only tasks of this note"
//	@Param			type	query		string	false	"Task type"	Enums(open, scheduled, done, cancelled)
//	@Param			hashtag	query		string	false	"Tasks carrying this #hashtag"
//	@Param			mention	query		string	false	"Tasks carrying this @mention"
//	@Param			q		query		string	false	"Content match"
//	@Param			sort	query		string	false	"Comma-separated sort fields, e.g. -priority,content"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	TaskListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := index.TaskFilter{
		Path:    q.Get("path"),
		Type:    models.ParagraphType(q.Get("type")),
		Hashtag: q.Get("hashtag"),
		Mention: q.Get("mention"),
		Query:   q.Get("q"),
	}
	if f.Type != "" && !f.Type.IsTask() {
		writeJSON(w, http.StatusBadRequest, errorBody("type must be one of open, scheduled, done, cancelled"))
		return
	}
	if s := q.Get("sort"); s != "" {
		f.Sort = strings.Split(s, ",")
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	rows, err := h.svc.ListTasks(r.Context(), f)
	if err != nil {
		writeError(w, "list tasks", f.Path, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: rows})
}
