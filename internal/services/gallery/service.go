// Package gallery implements image operations and the ownership rules that
// govern them. Role checks happen at the route; ownership is enforced here, so
// an admin who does not own an image is still rejected on mutation.
package gallery

import (
	"context"
	"io"
	"strings"

	"github.com/pixelforge/gallery/internal/domain/image"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/logging"
	"github.com/pixelforge/gallery/internal/media"
	"github.com/pixelforge/gallery/internal/storage"
)

// Service manages the image aggregate and its media host collaborator.
type Service struct {
	store    storage.ImageStore
	uploader media.Uploader
	log      *logging.Logger
}

// New constructs a gallery service.
func New(store storage.ImageStore, uploader media.Uploader, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("gallery")
	}
	return &Service{store: store, uploader: uploader, log: log}
}

// Upload stores the binary on the media host, then records the image with the
// creating identity as its immutable owner.
func (s *Service) Upload(ctx context.Context, ownerID, title string, file io.Reader, filename string) (image.Image, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return image.Image{}, errors.Validation("title is required")
	}
	if file == nil {
		return image.Image{}, errors.Validation("image file is required")
	}

	asset, err := s.uploader.Upload(ctx, file, filename)
	if err != nil {
		return image.Image{}, err
	}

	img, err := s.store.CreateImage(ctx, image.Image{
		Title:      title,
		URL:        asset.URL,
		PublicID:   asset.PublicID,
		UploadedBy: ownerID,
	})
	if err != nil {
		return image.Image{}, err
	}

	s.log.WithContext(ctx).
		WithField("image_id", img.ID).
		WithField("owner_id", ownerID).
		Info("image uploaded")
	return img, nil
}

// List returns every image, owner username included, in the requested order.
// Unknown sort fields fall back to newest-first by creation time.
func (s *Service) List(ctx context.Context, sortBy, sortOrder string) ([]image.Image, error) {
	return s.store.ListImages(ctx, storage.ListOptions{
		SortBy:    strings.TrimSpace(sortBy),
		Ascending: strings.EqualFold(strings.TrimSpace(sortOrder), "asc"),
	})
}

// Get retrieves one image by ID.
func (s *Service) Get(ctx context.Context, id string) (image.Image, error) {
	return s.store.GetImage(ctx, id)
}

// UpdateTitle renames an image. Only the owner may do this, regardless of
// role.
func (s *Service) UpdateTitle(ctx context.Context, id, title, callerID string) (image.Image, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return image.Image{}, errors.Validation("title is required")
	}

	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return image.Image{}, err
	}
	if img.UploadedBy != callerID {
		return image.Image{}, errors.Forbidden("only the uploader may update this image")
	}

	updated, err := s.store.UpdateImageTitle(ctx, id, title)
	if err != nil {
		return image.Image{}, err
	}

	s.log.WithContext(ctx).
		WithField("image_id", id).
		Info("image title updated")
	return updated, nil
}

// Delete removes an image and its stored binary. Only the owner may delete.
// The remote binary is destroyed first; if that fails the record is kept so
// the delete can be retried, rather than leaking an orphaned remote object.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return err
	}
	if img.UploadedBy != callerID {
		return errors.Forbidden("only the uploader may delete this image")
	}

	if err := s.uploader.Destroy(ctx, img.PublicID); err != nil {
		s.log.WithContext(ctx).
			WithError(err).
			WithField("image_id", id).
			Warn("media destroy failed; record kept for retry")
		return err
	}

	if err := s.store.DeleteImage(ctx, id); err != nil {
		return err
	}

	s.log.WithContext(ctx).
		WithField("image_id", id).
		Info("image deleted")
	return nil
}

// LikeResult reports the caller's like state after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}

// ToggleLike flips the caller's membership in the like set. Any authenticated
// identity may like any image, including their own; toggling twice restores
// the original state.
func (s *Service) ToggleLike(ctx context.Context, id, callerID string) (LikeResult, error) {
	liked, total, err := s.store.ToggleLike(ctx, id, callerID)
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Liked: liked, TotalLikes: total}, nil
}

// AddComment appends a comment carrying the caller's current username
// snapshot and returns the full comment list.
func (s *Service) AddComment(ctx context.Context, id, callerID, callerUsername, text string) ([]image.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Validation("comment text is required")
	}

	comments, err := s.store.AddComment(ctx, id, image.Comment{
		UserID:   callerID,
		Username: callerUsername,
		Text:     text,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).
		WithField("image_id", id).
		Info("comment added")
	return comments, nil
}

// DeleteComment removes a comment. Strictly author-only: an admin cannot
// delete someone else's comment.
func (s *Service) DeleteComment(ctx context.Context, imageID, commentID, callerID string) ([]image.Comment, error) {
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	var found *image.Comment
	for i := range img.Comments {
		if img.Comments[i].ID == commentID {
			found = &img.Comments[i]
			break
		}
	}
	if found == nil {
		return nil, errors.NotFound("comment not found")
	}
	if found.UserID != callerID {
		return nil, errors.Forbidden("only the author may delete this comment")
	}

	comments, err := s.store.RemoveComment(ctx, imageID, commentID)
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).
		WithField("image_id", imageID).
		WithField("comment_id", commentID).
		Info("comment deleted")
	return comments, nil
}
