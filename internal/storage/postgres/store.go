// Package postgres implements the storage interfaces backed by PostgreSQL.
// Likes and comments live in child tables of the image row, so every like or
// comment mutation is a single statement and concurrent writers against the
// same image cannot lose updates.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pixelforge/gallery/internal/domain/image"
	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/storage"
)

const uniqueViolation = "23505"

// Store implements the storage interfaces using a database handle.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ImageStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, acct user.Account) (user.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, acct.ID, acct.Username, acct.Email, acct.PasswordHash, string(acct.Role), acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return user.Account{}, errors.DuplicateAccount("username or email already registered")
		}
		return user.Account{}, err
	}
	return acct, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.Account, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM app_users
		WHERE id = $1
	`, id), id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.Account, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM app_users
		WHERE lower(username) = lower($1)
	`, username), username)
}

func (s *Store) scanUser(row *sql.Row, key string) (user.Account, error) {
	var (
		acct user.Account
		role string
	)
	if err := row.Scan(&acct.ID, &acct.Username, &acct.Email, &acct.PasswordHash, &role, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return user.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", key))
		}
		return user.Account{}, err
	}
	acct.Role = user.Role(role)
	return acct, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id, passwordHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound(fmt.Sprintf("account %s not found", id))
	}
	return nil
}

// --- ImageStore -------------------------------------------------------------

func (s *Store) CreateImage(ctx context.Context, img image.Image) (image.Image, error) {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	img.CreatedAt = now
	img.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_images (id, title, url, public_id, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, img.ID, img.Title, img.URL, img.PublicID, img.UploadedBy, img.CreatedAt, img.UpdatedAt)
	if err != nil {
		return image.Image{}, err
	}
	img.Likes = []string{}
	img.Comments = []image.Comment{}
	return img, nil
}

func (s *Store) GetImage(ctx context.Context, id string) (image.Image, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT i.id, i.title, i.url, i.public_id, i.uploaded_by, u.username, i.created_at, i.updated_at
		FROM app_images i
		JOIN app_users u ON u.id = i.uploaded_by
		WHERE i.id = $1
	`, id)

	var img image.Image
	if err := row.Scan(&img.ID, &img.Title, &img.URL, &img.PublicID, &img.UploadedBy, &img.OwnerUsername, &img.CreatedAt, &img.UpdatedAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return image.Image{}, errors.NotFound(fmt.Sprintf("image %s not found", id))
		}
		return image.Image{}, err
	}

	if err := s.loadLikes(ctx, &img); err != nil {
		return image.Image{}, err
	}
	if err := s.loadComments(ctx, &img); err != nil {
		return image.Image{}, err
	}
	return img, nil
}

func (s *Store) ListImages(ctx context.Context, opts storage.ListOptions) ([]image.Image, error) {
	order := orderClause(opts)

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.title, i.url, i.public_id, i.uploaded_by, u.username, i.created_at, i.updated_at
		FROM app_images i
		JOIN app_users u ON u.id = i.uploaded_by
	`+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []image.Image
	for rows.Next() {
		var img image.Image
		if err := rows.Scan(&img.ID, &img.Title, &img.URL, &img.PublicID, &img.UploadedBy, &img.OwnerUsername, &img.CreatedAt, &img.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if err := s.loadLikes(ctx, &result[i]); err != nil {
			return nil, err
		}
		if err := s.loadComments(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// orderClause maps caller-supplied sort options onto a fixed set of columns.
// Unknown fields fall back to newest-first.
func orderClause(opts storage.ListOptions) string {
	column := "i.created_at"
	switch opts.SortBy {
	case "title":
		column = "i.title"
	case "updatedAt":
		column = "i.updated_at"
	}
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

func (s *Store) UpdateImageTitle(ctx context.Context, id, title string) (image.Image, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE app_images
		SET title = $2, updated_at = $3
		WHERE id = $1
	`, id, title, time.Now().UTC())
	if err != nil {
		return image.Image{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return image.Image{}, errors.NotFound(fmt.Sprintf("image %s not found", id))
	}
	return s.GetImage(ctx, id)
}

func (s *Store) DeleteImage(ctx context.Context, id string) error {
	// Likes and comments cascade with the image row.
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM app_images WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound(fmt.Sprintf("image %s not found", id))
	}
	return nil
}

func (s *Store) ToggleLike(ctx context.Context, imageID, userID string) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM app_images WHERE id = $1)
	`, imageID).Scan(&exists); err != nil {
		return false, 0, err
	}
	if !exists {
		return false, 0, errors.NotFound(fmt.Sprintf("image %s not found", imageID))
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM app_image_likes WHERE image_id = $1 AND user_id = $2
	`, imageID, userID)
	if err != nil {
		return false, 0, err
	}

	removed, _ := result.RowsAffected()
	liked := removed == 0
	if liked {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO app_image_likes (image_id, user_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (image_id, user_id) DO NOTHING
		`, imageID, userID, time.Now().UTC()); err != nil {
			return false, 0, err
		}
	}

	var total int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM app_image_likes WHERE image_id = $1
	`, imageID).Scan(&total); err != nil {
		return false, 0, err
	}

	if err := tx.Commit(); err != nil {
		return false, 0, err
	}
	return liked, total, nil
}

func (s *Store) AddComment(ctx context.Context, imageID string, c image.Comment) ([]image.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_image_comments (id, image_id, user_id, username, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, imageID, c.UserID, c.Username, c.Text, c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
			return nil, errors.NotFound(fmt.Sprintf("image %s not found", imageID))
		}
		return nil, err
	}
	return s.comments(ctx, imageID)
}

func (s *Store) RemoveComment(ctx context.Context, imageID, commentID string) ([]image.Comment, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM app_image_comments WHERE id = $1 AND image_id = $2
	`, commentID, imageID)
	if err != nil {
		return nil, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, errors.NotFound(fmt.Sprintf("comment %s not found", commentID))
	}
	return s.comments(ctx, imageID)
}

// --- helpers ----------------------------------------------------------------

func (s *Store) loadLikes(ctx context.Context, img *image.Image) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM app_image_likes WHERE image_id = $1 ORDER BY created_at
	`, img.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	img.Likes = []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return err
		}
		img.Likes = append(img.Likes, userID)
	}
	return rows.Err()
}

func (s *Store) loadComments(ctx context.Context, img *image.Image) error {
	comments, err := s.comments(ctx, img.ID)
	if err != nil {
		return err
	}
	img.Comments = comments
	return nil
}

func (s *Store) comments(ctx context.Context, imageID string) ([]image.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, username, body, created_at
		FROM app_image_comments
		WHERE image_id = $1
		ORDER BY created_at, id
	`, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []image.Comment{}
	for rows.Next() {
		var c image.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
