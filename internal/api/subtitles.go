package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/pipeline"
)

// maxUploadBytes caps direct media uploads through the API.
const maxUploadBytes = 256 << 20

// SubtitleService is the slice of pipeline.Service the handler needs.
type SubtitleService interface {
	Submit(ctx context.Context, req pipeline.Request) (*pipeline.Record, error)
	Lookup(id string) (pipeline.Record, bool)
}

// SubtitleHandler exposes the subtitle pipeline over HTTP: submit a job,
// poll its record, download the finished file.
type SubtitleHandler struct {
	svc     SubtitleService
	tempDir string
	log     zerolog.Logger
}

func NewSubtitleHandler(svc SubtitleService, tempDir string, log zerolog.Logger) *SubtitleHandler {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &SubtitleHandler{
		svc:     svc,
		tempDir: tempDir,
		log:     log.With().Str("handler", "subtitles").Logger(),
	}
}

// Routes registers the subtitle endpoints.
func (h *SubtitleHandler) Routes(r chi.Router) {
	r.Post("/subtitles", h.Create)
	r.Get("/subtitles/{id}", h.Get)
	r.Get("/subtitles/{id}/download", h.Download)
}

// Create handles POST /api/v1/subtitles. Accepts either a JSON body with a
// media URL or a multipart form with a "media" file.
func (h *SubtitleHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := h.parseRequest(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		var ve *pipeline.ValidationError
		if errors.As(err, &ve) {
			WriteError(w, http.StatusBadRequest, ve.Error())
			return
		}
		h.log.Error().Err(err).Msg("submit failed")
		WriteError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	WriteJSON(w, http.StatusAccepted, rec)
}

// Get handles GET /api/v1/subtitles/{id}.
func (h *SubtitleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.svc.Lookup(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown job id")
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// Download handles GET /api/v1/subtitles/{id}/download. Serving the file
// with the request context means a client abort cancels the transfer.
func (h *SubtitleHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.svc.Lookup(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown job id")
		return
	}
	if rec.State != pipeline.StateCompleted || rec.Result == nil {
		WriteErrorDetail(w, http.StatusConflict, "job not completed", string(rec.State))
		return
	}

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.Result.SubtitleName+`"`)
	http.ServeFile(w, r, rec.Result.SubtitlePath)
}

// parseRequest builds the pipeline request from either body shape. For
// multipart uploads it spools the media to a temp file; the returned cleanup
// removes it and is only for the error path — on success the pipeline owns
// the file.
func (h *SubtitleHandler) parseRequest(r *http.Request) (pipeline.Request, func(), error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return h.parseMultipart(r)
	}

	var req pipeline.Request
	if err := DecodeJSON(r, &req); err != nil {
		return pipeline.Request{}, nil, errors.New("invalid JSON body: " + err.Error())
	}
	return req, nil, nil
}

func (h *SubtitleHandler) parseMultipart(r *http.Request) (pipeline.Request, func(), error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return pipeline.Request{}, nil, errors.New("invalid multipart form: " + err.Error())
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("media")
	if err != nil {
		return pipeline.Request{}, nil, errors.New(`multipart form needs a "media" file field`)
	}
	defer file.Close()

	tmp, err := os.CreateTemp(h.tempDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return pipeline.Request{}, nil, errors.New("failed to spool upload")
	}
	tmpPath := tmp.Name()
	n, err := io.Copy(tmp, io.LimitReader(file, maxUploadBytes+1))
	tmp.Close()
	if err != nil || n == 0 {
		os.Remove(tmpPath)
		return pipeline.Request{}, nil, errors.New("failed to read uploaded media")
	}
	if n > maxUploadBytes {
		os.Remove(tmpPath)
		return pipeline.Request{}, nil, errors.New("uploaded media too large")
	}

	req := pipeline.Request{
		LocalPath:   tmpPath,
		SourceLang:  r.FormValue("source_lang"),
		TargetLang:  r.FormValue("target_lang"),
		DeleteLocal: true,
	}
	return req, func() { os.Remove(tmpPath) }, nil
}
