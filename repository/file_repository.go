package repository

import (
	"context"
	"errors"

	"voicevault-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileRepository handles database operations for file records
type FileRepository struct {
	db *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

// Create creates a new file record and assigns its ID
func (r *FileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO app_file (
			file_name, size, download_url, user_id, created_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRow(
		ctx, query,
		file.FileName,
		file.SizeMB,
		file.DownloadURL,
		file.OwnerID,
		file.CreatedAt,
	).Scan(&file.ID)
}

// GetByID retrieves a file record by ID
func (r *FileRepository) GetByID(ctx context.Context, id int64) (*models.FileRecord, error) {
	file := &models.FileRecord{}
	query := `
		SELECT id, file_name, size, download_url, user_id, created_at
		FROM app_file
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.FileName,
		&file.SizeMB,
		&file.DownloadURL,
		&file.OwnerID,
		&file.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return file, nil
}

// ListByOwnerID retrieves all file records for a user
func (r *FileRepository) ListByOwnerID(ctx context.Context, ownerID int64) ([]*models.FileRecord, error) {
	query := `
		SELECT id, file_name, size, download_url, user_id, created_at
		FROM app_file
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		file := &models.FileRecord{}
		err := rows.Scan(
			&file.ID,
			&file.FileName,
			&file.SizeMB,
			&file.DownloadURL,
			&file.OwnerID,
			&file.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// DeleteByID deletes a file record. Deleting a missing record is a no-op.
func (r *FileRepository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM app_file WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
