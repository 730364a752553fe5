// Package storage declares the persistence interfaces for accounts and the
// image aggregate. Implementations must apply every mutation of a single image
// atomically; callers never read-modify-write the whole aggregate.
package storage

import (
	"context"

	"github.com/pixelforge/gallery/internal/domain/image"
	"github.com/pixelforge/gallery/internal/domain/user"
)

// ListOptions controls ordering of ListImages. Field names follow the API
// surface ("createdAt", "updatedAt", "title"); implementations reject unknown
// fields by falling back to the default newest-first ordering.
type ListOptions struct {
	SortBy    string
	Ascending bool
}

// UserStore persists account records. Username and email are each globally
// unique; CreateUser fails with a DuplicateAccount error when either is taken.
type UserStore interface {
	CreateUser(ctx context.Context, acct user.Account) (user.Account, error)
	GetUser(ctx context.Context, id string) (user.Account, error)
	GetUserByUsername(ctx context.Context, username string) (user.Account, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// ImageStore persists the image aggregate. Like and comment mutations are
// field-level and atomic per image: concurrent calls against the same image
// must not lose updates.
type ImageStore interface {
	CreateImage(ctx context.Context, img image.Image) (image.Image, error)
	GetImage(ctx context.Context, id string) (image.Image, error)
	// ListImages returns all images with the owner username denormalized
	// onto each entry.
	ListImages(ctx context.Context, opts ListOptions) ([]image.Image, error)
	UpdateImageTitle(ctx context.Context, id, title string) (image.Image, error)
	DeleteImage(ctx context.Context, id string) error

	// ToggleLike adds the user to the like set if absent, removes it if
	// present, and reports the resulting state.
	ToggleLike(ctx context.Context, imageID, userID string) (liked bool, totalLikes int, err error)

	// AddComment appends the comment (assigning its ID if empty) and returns
	// the full ordered comment list.
	AddComment(ctx context.Context, imageID string, c image.Comment) ([]image.Comment, error)
	// RemoveComment deletes one comment by ID and returns the remaining
	// comments. It fails with NotFound when either ID is unknown.
	RemoveComment(ctx context.Context, imageID, commentID string) ([]image.Comment, error)
}
