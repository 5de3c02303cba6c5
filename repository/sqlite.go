package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voicevault-backend/models"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database and creates the tables it needs
func OpenSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := initSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return db, nil
}

func initSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS app_user (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		login TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_file (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_name TEXT NOT NULL,
		size REAL NOT NULL,
		download_url TEXT NOT NULL UNIQUE,
		user_id INTEGER NOT NULL REFERENCES app_user(id),
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_app_file_user_id ON app_file(user_id);
	`

	_, err := db.Exec(query)
	return err
}

// SQLiteFileRepository stores file records in SQLite
type SQLiteFileRepository struct {
	db *sql.DB
}

// NewSQLiteFileRepository creates a new SQLite file repository
func NewSQLiteFileRepository(db *sql.DB) *SQLiteFileRepository {
	return &SQLiteFileRepository{db: db}
}

// Create creates a new file record and assigns its ID
func (r *SQLiteFileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO app_file (file_name, size, download_url, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		file.FileName,
		file.SizeMB,
		file.DownloadURL,
		file.OwnerID,
		file.CreatedAt.UnixNano(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	file.ID = id
	return nil
}

// GetByID retrieves a file record by ID
func (r *SQLiteFileRepository) GetByID(ctx context.Context, id int64) (*models.FileRecord, error) {
	query := `
		SELECT id, file_name, size, download_url, user_id, created_at
		FROM app_file
		WHERE id = ?`

	file, err := scanFileRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

// ListByOwnerID retrieves all file records for a user
func (r *SQLiteFileRepository) ListByOwnerID(ctx context.Context, ownerID int64) ([]*models.FileRecord, error) {
	query := `
		SELECT id, file_name, size, download_url, user_id, created_at
		FROM app_file
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		file, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// DeleteByID deletes a file record. Deleting a missing record is a no-op.
func (r *SQLiteFileRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM app_file WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(row rowScanner) (*models.FileRecord, error) {
	file := &models.FileRecord{}
	var createdAt int64
	err := row.Scan(
		&file.ID,
		&file.FileName,
		&file.SizeMB,
		&file.DownloadURL,
		&file.OwnerID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	file.CreatedAt = time.Unix(0, createdAt).UTC()
	return file, nil
}

// SQLiteUserRepository resolves accounts stored in SQLite
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Create inserts a user and assigns its ID
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO app_user (login, email, password, created_at) VALUES (?, ?, ?, ?)`,
		user.Login, user.Email, user.PasswordHash, user.CreatedAt.UnixNano(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetByEmail retrieves a user by email
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, login, email, password, created_at FROM app_user WHERE email = ?`, email,
	).Scan(&user.ID, &user.Login, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()
	return user, nil
}
