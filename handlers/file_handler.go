package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"voicevault-backend/models"
	"voicevault-backend/service"
	"voicevault-backend/storage"

	"github.com/gin-gonic/gin"
)

// multipartOverhead allows for form boundaries and part headers on top of the file itself
const multipartOverhead = 1 << 20

// FileHandler handles HTTP requests for file operations
type FileHandler struct {
	files       *service.FileService
	transcriber *service.TranscriptionService
	maxFileSize int64
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files *service.FileService, transcriber *service.TranscriptionService, maxFileSize int64, logger *slog.Logger) *FileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandler{
		files:       files,
		transcriber: transcriber,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// UploadFile handles POST /api/files/upload
func (h *FileHandler) UploadFile(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	// Refuse oversized bodies before the form is parsed
	limit := h.maxFileSize + multipartOverhead
	if c.Request.ContentLength > limit {
		h.respondTooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	// Get file from form
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondTooLarge(c)
			return
		}
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	// Validate file size
	if fileHeader.Size > h.maxFileSize {
		h.respondTooLarge(c)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open multipart file", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.files.CreateFile(c.Request.Context(), service.CreateFileRequest{
		Candidate: models.UploadCandidate{
			FileName: fileHeader.Filename,
			Size:     fileHeader.Size,
			Body:     file,
		},
		OwnerID: userID,
	})
	if err != nil {
		h.respondServiceError(c, err, "UPLOAD_FAILED", "Failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.File,
	})
}

// ListFiles handles GET /api/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	result, err := h.files.ListFiles(c.Request.Context(), service.ListFilesRequest{OwnerID: userID})
	if err != nil {
		h.respondServiceError(c, err, "LIST_FAILED", "Failed to list files")
		return
	}

	files := result.Files
	if files == nil {
		files = []*models.FileRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    files,
	})
}

// DeleteFile handles DELETE /api/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id, ok := parseFileID(c)
	if !ok {
		return
	}

	_, err := h.files.DeleteFile(c.Request.Context(), service.DeleteFileRequest{
		FileID:      id,
		RequesterID: userID,
	})
	if err != nil {
		h.respondServiceError(c, err, "DELETE_FAILED", "Failed to delete file")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// TranscribeFile handles POST /api/files/:id/transcribe
func (h *FileHandler) TranscribeFile(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id, ok := parseFileID(c)
	if !ok {
		return
	}

	if h.transcriber == nil {
		h.respondServiceError(c, service.ErrTranscriptionUnavailable, "", "")
		return
	}

	result, err := h.transcriber.Transcribe(c.Request.Context(), service.TranscribeRequest{
		FileID:      id,
		RequesterID: userID,
	})
	if err != nil {
		h.respondServiceError(c, err, "TRANSCRIPTION_FAILED", "Failed to transcribe file")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"file_id": result.FileID,
			"text":    result.Text,
		},
	})
}

// DownloadFile handles GET /download_file/:code
func (h *FileHandler) DownloadFile(c *gin.Context) {
	code := c.Param("code")

	blob, err := h.files.OpenBlob(c.Request.Context(), code)
	if err != nil {
		h.respondServiceError(c, err, "DOWNLOAD_FAILED", "Failed to download file")
		return
	}
	defer blob.Body.Close()

	c.DataFromReader(http.StatusOK, blob.Size, blob.ContentType, blob.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", blob.Name),
	})
}

func (h *FileHandler) respondTooLarge(c *gin.Context) {
	respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
		fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
}

func parseFileID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid file ID format")
		return 0, false
	}
	return id, true
}

// respondServiceError maps service errors to user-facing responses.
// Unexpected errors are logged and reported with a generic message so storage details stay internal.
func (h *FileHandler) respondServiceError(c *gin.Context, err error, code, message string) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFileType):
		respondError(c, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "Unsupported file type: only mp3 and wav files are accepted")
	case errors.Is(err, service.ErrMissingFileName):
		respondError(c, http.StatusBadRequest, "MISSING_FILE_NAME", "The uploaded file has no name")
	case errors.Is(err, service.ErrFileTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File is too large")
	case errors.Is(err, service.ErrRecordNotFound), errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidCode):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "File not found")
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "PERMISSION_DENIED", "You do not have permission to access this file")
	case errors.Is(err, service.ErrTranscriptionUnavailable):
		respondError(c, http.StatusServiceUnavailable, "TRANSCRIPTION_UNAVAILABLE", "Transcription is not available")
	default:
		h.logger.Error(message,
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, code, message)
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
