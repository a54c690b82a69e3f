package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/andresuchdata/restock/internal/matrix"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Browser is the read side of the Drive client used by the handler.
type Browser interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	GetFile(ctx context.Context, fileID string) (*File, error)
	DownloadFile(ctx context.Context, file *File, w io.Writer) error
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

type Handler struct {
	service       Browser
	ingestService *IngestService
}

func NewHandler(service Browser, ingestService *IngestService) *Handler {
	return &Handler{
		service:       service,
		ingestService: ingestService,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/ingest/{kind}", h.Ingest).Methods(http.MethodPost)
}

func (h *Handler) resolveFolder(r *http.Request) (string, error) {
	query := r.URL.Query()
	if path := query.Get("path"); path != "" {
		return h.service.FindFolderByPath(r.Context(), path)
	}
	return query.Get("folderId"), nil
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.resolveFolder(r)
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := h.service.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []*File{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	file, err := h.service.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	name := gridName(file)
	contentType := "text/csv"
	if format, _ := matrix.FormatFromFilename(name); format == matrix.FormatXLSX {
		contentType = mimeXLSX
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if err := h.service.DownloadFile(r.Context(), file, w); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("drive download failed")
	}
}

// Ingest imports a single file (fileId) or every matrix file in a folder
// (folderId or path) as sales or arrivals.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, err)
		return
	}

	if fileID := r.URL.Query().Get("fileId"); fileID != "" {
		result, err := h.ingestService.IngestFile(r.Context(), kind, fileID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	if r.URL.Query().Get("folderId") == "" && r.URL.Query().Get("path") == "" {
		http.Error(w, "fileId, folderId or path parameter is required", http.StatusBadRequest)
		return
	}

	folderID, err := h.resolveFolder(r)
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := h.ingestService.IngestFolder(r.Context(), kind, folderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode drive response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrFolderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrUnknownKind), errors.Is(err, matrix.ErrInvalidHeader), errors.Is(err, matrix.ErrUnsupportedFile):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("drive request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
