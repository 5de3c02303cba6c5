package models

import (
	"io"
	"strings"
	"time"
)

// DownloadPathPrefix is the retrieval path prefix; the storage key follows it.
const DownloadPathPrefix = "/download_file/"

// FileRecord represents the metadata of one stored audio file
type FileRecord struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"file_name"`
	SizeMB      float64   `json:"size_mb"`
	DownloadURL string    `json:"download_url"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// StorageKey returns the segment of the download URL after the last slash
func (f *FileRecord) StorageKey() string {
	return StorageKeyFromURL(f.DownloadURL)
}

// DownloadURLFor builds the retrieval path for a storage key
func DownloadURLFor(storageKey string) string {
	return DownloadPathPrefix + storageKey
}

// StorageKeyFromURL extracts the storage key from a retrieval path
func StorageKeyFromURL(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}

// UploadCandidate describes an incoming file before it is persisted
type UploadCandidate struct {
	FileName string
	Size     int64
	Body     io.Reader
}
