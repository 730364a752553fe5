// Package memory is an in-memory implementation of the storage interfaces. It
// is safe for concurrent use and is primarily intended for tests and local
// development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pixelforge/gallery/internal/domain/image"
	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/storage"
)

// Store holds all records behind one mutex, so every mutation of a single
// image aggregate is applied atomically.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]user.Account
	images map[string]image.Image
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ImageStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID: 1,
		users:  make(map[string]user.Account),
		images: make(map[string]image.Image),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, acct user.Account) (user.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, acct.Username) || strings.EqualFold(existing.Email, acct.Email) {
			return user.Account{}, errors.DuplicateAccount("username or email already registered")
		}
	}

	if acct.ID == "" {
		acct.ID = s.nextIDLocked()
	} else if _, exists := s.users[acct.ID]; exists {
		return user.Account{}, errors.DuplicateAccount(fmt.Sprintf("account %s already exists", acct.ID))
	}

	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	s.users[acct.ID] = acct
	return acct, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.users[id]
	if !ok {
		return user.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", id))
	}
	return acct, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, acct := range s.users {
		if strings.EqualFold(acct.Username, username) {
			return acct, nil
		}
	}
	return user.Account{}, errors.NotFound(fmt.Sprintf("account %s not found", username))
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.users[id]
	if !ok {
		return errors.NotFound(fmt.Sprintf("account %s not found", id))
	}
	acct.PasswordHash = passwordHash
	acct.UpdatedAt = time.Now().UTC()
	s.users[id] = acct
	return nil
}

// ImageStore implementation ---------------------------------------------------

func (s *Store) CreateImage(_ context.Context, img image.Image) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img.ID == "" {
		img.ID = s.nextIDLocked()
	} else if _, exists := s.images[img.ID]; exists {
		return image.Image{}, errors.Internal(fmt.Sprintf("image %s already exists", img.ID), nil)
	}

	now := time.Now().UTC()
	img.CreatedAt = now
	img.UpdatedAt = now
	img.Likes = append([]string(nil), img.Likes...)
	img.Comments = append([]image.Comment(nil), img.Comments...)

	s.images[img.ID] = img
	return cloneImage(img), nil
}

func (s *Store) GetImage(_ context.Context, id string) (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[id]
	if !ok {
		return image.Image{}, errors.NotFound(fmt.Sprintf("image %s not found", id))
	}
	return s.withOwnerLocked(cloneImage(img)), nil
}

func (s *Store) ListImages(_ context.Context, opts storage.ListOptions) ([]image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]image.Image, 0, len(s.images))
	for _, img := range s.images {
		result = append(result, s.withOwnerLocked(cloneImage(img)))
	}

	less := sortFunc(opts)
	sort.SliceStable(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result, nil
}

func (s *Store) UpdateImageTitle(_ context.Context, id, title string) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return image.Image{}, errors.NotFound(fmt.Sprintf("image %s not found", id))
	}
	img.Title = title
	img.UpdatedAt = time.Now().UTC()
	s.images[id] = img
	return s.withOwnerLocked(cloneImage(img)), nil
}

func (s *Store) DeleteImage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[id]; !ok {
		return errors.NotFound(fmt.Sprintf("image %s not found", id))
	}
	delete(s.images, id)
	return nil
}

func (s *Store) ToggleLike(_ context.Context, imageID, userID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[imageID]
	if !ok {
		return false, 0, errors.NotFound(fmt.Sprintf("image %s not found", imageID))
	}

	liked := true
	likes := make([]string, 0, len(img.Likes)+1)
	for _, id := range img.Likes {
		if id == userID {
			liked = false
			continue
		}
		likes = append(likes, id)
	}
	if liked {
		likes = append(likes, userID)
	}

	img.Likes = likes
	img.UpdatedAt = time.Now().UTC()
	s.images[imageID] = img
	return liked, len(likes), nil
}

func (s *Store) AddComment(_ context.Context, imageID string, c image.Comment) ([]image.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[imageID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("image %s not found", imageID))
	}

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	img.Comments = append(append([]image.Comment(nil), img.Comments...), c)
	img.UpdatedAt = time.Now().UTC()
	s.images[imageID] = img
	return append([]image.Comment(nil), img.Comments...), nil
}

func (s *Store) RemoveComment(_ context.Context, imageID, commentID string) ([]image.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[imageID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("image %s not found", imageID))
	}

	found := false
	remaining := make([]image.Comment, 0, len(img.Comments))
	for _, c := range img.Comments {
		if c.ID == commentID {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return nil, errors.NotFound(fmt.Sprintf("comment %s not found", commentID))
	}

	img.Comments = remaining
	img.UpdatedAt = time.Now().UTC()
	s.images[imageID] = img
	return append([]image.Comment(nil), remaining...), nil
}

// helpers ---------------------------------------------------------------------

func (s *Store) withOwnerLocked(img image.Image) image.Image {
	if owner, ok := s.users[img.UploadedBy]; ok {
		img.OwnerUsername = owner.Username
	}
	return img
}

func cloneImage(img image.Image) image.Image {
	img.Likes = append([]string(nil), img.Likes...)
	img.Comments = append([]image.Comment(nil), img.Comments...)
	return img
}

func sortFunc(opts storage.ListOptions) func(a, b image.Image) bool {
	switch opts.SortBy {
	case "title":
		if opts.Ascending {
			return func(a, b image.Image) bool { return a.Title < b.Title }
		}
		return func(a, b image.Image) bool { return a.Title > b.Title }
	case "updatedAt":
		if opts.Ascending {
			return func(a, b image.Image) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
		}
		return func(a, b image.Image) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	default:
		if opts.Ascending {
			return func(a, b image.Image) bool { return a.CreatedAt.Before(b.CreatedAt) }
		}
		return func(a, b image.Image) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}
