package storage

import (
	"errors"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := GenerateCode()
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), "unexpected rune %q in %s", r, code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 990)
}

func TestBlobName(t *testing.T) {
	assert.Equal(t, "aZ3kQ7mP-song.wav", BlobName("aZ3kQ7mP", "song.wav"))
	assert.Equal(t, "song.wav", originalName("aZ3kQ7mP", "aZ3kQ7mP-song.wav"))
}

func TestContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"song.mp3", "audio/mpeg"},
		{"SONG.MP3", "audio/mpeg"},
		{"take.wav", "audio/wav"},
		{"notes.txt", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.filename))
		})
	}
}

func TestNewStorage(t *testing.T) {
	s, err := NewStorage(StorageConfig{Type: StorageTypeLocal, LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = NewStorage(StorageConfig{Type: "ftp"})
	assert.EqualError(t, err, "unknown storage type: ftp")

	_, err = NewStorage(StorageConfig{Type: StorageTypeS3})
	assert.Error(t, err)
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("disk full")

	writeErr := &WriteError{Code: "aZ3kQ7mP", Err: cause}
	assert.ErrorIs(t, writeErr, cause)
	assert.Equal(t, "failed to write blob aZ3kQ7mP: disk full", writeErr.Error())

	deleteErr := &DeleteError{Code: "aZ3kQ7mP", Err: cause}
	assert.ErrorIs(t, deleteErr, cause)
	assert.Equal(t, "failed to delete blob aZ3kQ7mP: disk full", deleteErr.Error())
}
