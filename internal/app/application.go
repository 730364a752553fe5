// Package app ties the gallery services together.
package app

import (
	"github.com/pixelforge/gallery/internal/auth"
	"github.com/pixelforge/gallery/internal/logging"
	"github.com/pixelforge/gallery/internal/media"
	mediamemory "github.com/pixelforge/gallery/internal/media/memory"
	"github.com/pixelforge/gallery/internal/services/accounts"
	"github.com/pixelforge/gallery/internal/services/gallery"
	"github.com/pixelforge/gallery/internal/storage"
	"github.com/pixelforge/gallery/internal/storage/memory"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users  storage.UserStore
	Images storage.ImageStore
}

// Application ties domain services together.
type Application struct {
	log *logging.Logger

	Tokens   *auth.TokenService
	Accounts *accounts.Service
	Gallery  *gallery.Service
}

// New builds a fully initialised application. A nil uploader defaults to the
// in-memory media host; a nil logger to the default logger.
func New(stores Stores, uploader media.Uploader, tokens *auth.TokenService, log *logging.Logger) *Application {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Images == nil {
		stores.Images = mem
	}
	if uploader == nil {
		uploader = mediamemory.New()
	}
	if tokens == nil {
		tokens = auth.NewTokenService([]byte("dev-only-secret"), 0)
	}

	return &Application{
		log:      log,
		Tokens:   tokens,
		Accounts: accounts.New(stores.Users, tokens, log),
		Gallery:  gallery.New(stores.Images, uploader, log),
	}
}
