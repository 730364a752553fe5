package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pixelforge/gallery/internal/domain/image"
	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/storage"
)

func TestCreateUserRejectsDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, user.Account{Username: "alice", Email: "alice@example.com", Role: user.RoleUser}); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	cases := []struct {
		name  string
		acct  user.Account
	}{
		{name: "same_username", acct: user.Account{Username: "alice", Email: "other@example.com"}},
		{name: "same_username_different_case", acct: user.Account{Username: "ALICE", Email: "other@example.com"}},
		{name: "same_email", acct: user.Account{Username: "bob", Email: "alice@example.com"}},
		{name: "same_email_different_case", acct: user.Account{Username: "bob", Email: "Alice@Example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.CreateUser(ctx, tc.acct); !errors.Is(err, errors.CodeDuplicateAccount) {
				t.Fatalf("CreateUser = %v, want DUPLICATE_ACCOUNT", err)
			}
		})
	}
}

func TestUserLookup(t *testing.T) {
	s := New()
	ctx := context.Background()

	acct, err := s.CreateUser(ctx, user.Account{Username: "alice", Email: "alice@example.com", Role: user.RoleAdmin})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if acct.ID == "" {
		t.Fatal("CreateUser assigned no ID")
	}

	byID, err := s.GetUser(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if byID.Username != "alice" || byID.Role != user.RoleAdmin {
		t.Fatalf("GetUser = %+v", byID)
	}

	byName, err := s.GetUserByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("GetUserByUsername error: %v", err)
	}
	if byName.ID != acct.ID {
		t.Fatalf("GetUserByUsername ID = %q, want %q", byName.ID, acct.ID)
	}

	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("GetUser missing = %v, want NOT_FOUND", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	s := New()
	ctx := context.Background()

	acct, err := s.CreateUser(ctx, user.Account{Username: "alice", Email: "a@example.com", PasswordHash: "old"})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	if err := s.UpdatePasswordHash(ctx, acct.ID, "new"); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
	got, err := s.GetUser(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if got.PasswordHash != "new" {
		t.Fatalf("PasswordHash = %q, want %q", got.PasswordHash, "new")
	}

	if err := s.UpdatePasswordHash(ctx, "missing", "x"); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("UpdatePasswordHash missing = %v, want NOT_FOUND", err)
	}
}

func TestImageLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	owner, err := s.CreateUser(ctx, user.Account{Username: "alice", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	img, err := s.CreateImage(ctx, image.Image{Title: "Sunset", URL: "http://img/1", PublicID: "p1", UploadedBy: owner.ID})
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}

	got, err := s.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage error: %v", err)
	}
	if got.OwnerUsername != "alice" {
		t.Errorf("OwnerUsername = %q, want %q", got.OwnerUsername, "alice")
	}

	updated, err := s.UpdateImageTitle(ctx, img.ID, "Sunrise")
	if err != nil {
		t.Fatalf("UpdateImageTitle error: %v", err)
	}
	if updated.Title != "Sunrise" {
		t.Errorf("Title = %q, want %q", updated.Title, "Sunrise")
	}

	if err := s.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage error: %v", err)
	}
	if _, err := s.GetImage(ctx, img.ID); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("GetImage after delete = %v, want NOT_FOUND", err)
	}
	if err := s.DeleteImage(ctx, img.ID); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("DeleteImage twice = %v, want NOT_FOUND", err)
	}
}

func TestListImagesSorting(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, title := range []string{"banana", "apple", "cherry"} {
		if _, err := s.CreateImage(ctx, image.Image{Title: title, UploadedBy: "1"}); err != nil {
			t.Fatalf("CreateImage error: %v", err)
		}
	}

	asc, err := s.ListImages(ctx, storage.ListOptions{SortBy: "title", Ascending: true})
	if err != nil {
		t.Fatalf("ListImages error: %v", err)
	}
	want := []string{"apple", "banana", "cherry"}
	for i, img := range asc {
		if img.Title != want[i] {
			t.Fatalf("asc[%d] = %q, want %q", i, img.Title, want[i])
		}
	}

	desc, err := s.ListImages(ctx, storage.ListOptions{SortBy: "title"})
	if err != nil {
		t.Fatalf("ListImages error: %v", err)
	}
	if desc[0].Title != "cherry" {
		t.Fatalf("desc[0] = %q, want %q", desc[0].Title, "cherry")
	}
}

func TestToggleLikeIsAnInvolution(t *testing.T) {
	s := New()
	ctx := context.Background()

	img, err := s.CreateImage(ctx, image.Image{Title: "Sunset", UploadedBy: "1"})
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}

	liked, total, err := s.ToggleLike(ctx, img.ID, "u1")
	if err != nil {
		t.Fatalf("ToggleLike error: %v", err)
	}
	if !liked || total != 1 {
		t.Fatalf("first toggle = (%v, %d), want (true, 1)", liked, total)
	}

	liked, total, err = s.ToggleLike(ctx, img.ID, "u1")
	if err != nil {
		t.Fatalf("ToggleLike error: %v", err)
	}
	if liked || total != 0 {
		t.Fatalf("second toggle = (%v, %d), want (false, 0)", liked, total)
	}

	if _, _, err := s.ToggleLike(ctx, "missing", "u1"); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("ToggleLike missing = %v, want NOT_FOUND", err)
	}
}

func TestConcurrentTogglesFromDistinctUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	img, err := s.CreateImage(ctx, image.Image{Title: "Sunset", UploadedBy: "1"})
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, _, err := s.ToggleLike(ctx, img.ID, fmt.Sprintf("user-%d", i)); err != nil {
				t.Errorf("ToggleLike error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage error: %v", err)
	}
	if len(got.Likes) != n {
		t.Fatalf("likes = %d, want %d", len(got.Likes), n)
	}
}

func TestComments(t *testing.T) {
	s := New()
	ctx := context.Background()

	img, err := s.CreateImage(ctx, image.Image{Title: "Sunset", UploadedBy: "1"})
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}

	comments, err := s.AddComment(ctx, img.ID, image.Comment{UserID: "u1", Username: "bob", Text: "nice"})
	if err != nil {
		t.Fatalf("AddComment error: %v", err)
	}
	if len(comments) != 1 || comments[0].ID == "" || comments[0].CreatedAt.IsZero() {
		t.Fatalf("AddComment = %+v", comments)
	}

	remaining, err := s.RemoveComment(ctx, img.ID, comments[0].ID)
	if err != nil {
		t.Fatalf("RemoveComment error: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining = %d, want 0", len(remaining))
	}

	if _, err := s.RemoveComment(ctx, img.ID, comments[0].ID); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("RemoveComment twice = %v, want NOT_FOUND", err)
	}
}

func TestReturnedImagesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	img, err := s.CreateImage(ctx, image.Image{Title: "Sunset", UploadedBy: "1"})
	if err != nil {
		t.Fatalf("CreateImage error: %v", err)
	}
	if _, _, err := s.ToggleLike(ctx, img.ID, "u1"); err != nil {
		t.Fatalf("ToggleLike error: %v", err)
	}

	got, err := s.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage error: %v", err)
	}
	got.Likes[0] = "tampered"

	again, err := s.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage error: %v", err)
	}
	if again.Likes[0] != "u1" {
		t.Fatalf("stored likes mutated through returned copy: %v", again.Likes)
	}
}
