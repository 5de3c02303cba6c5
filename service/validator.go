package service

import (
	"math"
	"path"
	"strings"

	"voicevault-backend/models"
)

var allowedAudioExtensions = map[string]bool{
	"mp3": true,
	"wav": true,
}

const bytesPerMB = 1 << 20

// CleanFileName reduces a client supplied name to its base name.
// Both slash styles are treated as separators.
func CleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == ".." || base == "/" {
		return ""
	}
	return base
}

// FileExtension returns the lower-cased extension without the dot
func FileExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// SizeInMB converts a byte count to megabytes rounded half-up to one decimal
func SizeInMB(size int64) float64 {
	return math.Floor(float64(size)/bytesPerMB*10+0.5) / 10
}

// ValidateAudio checks the candidate's name and type and returns the cleaned name.
// The size is not trusted here; it is taken from the bytes actually stored.
func ValidateAudio(candidate models.UploadCandidate) (string, error) {
	name := CleanFileName(candidate.FileName)
	if name == "" {
		return "", ErrMissingFileName
	}

	if !allowedAudioExtensions[FileExtension(name)] {
		return "", ErrUnsupportedFileType
	}

	return name, nil
}
