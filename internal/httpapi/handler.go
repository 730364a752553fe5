// Package httpapi maps the REST surface onto the application services.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixelforge/gallery/internal/app"
	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/logging"
	"github.com/pixelforge/gallery/internal/metrics"
	"github.com/pixelforge/gallery/internal/middleware"
)

const maxUploadBytes = 32 << 20

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logging.Logger
}

// Options carries the middleware dependencies for the router.
type Options struct {
	Auth    *middleware.AuthMiddleware
	CORS    *middleware.CORSMiddleware
	Metrics *metrics.Metrics
	Logger  *logging.Logger
}

// NewHandler returns the router exposing the gallery REST API.
//
// Authentication is mandatory on every image route and on password changes;
// registration and login are open. The admin role gate guards upload, update,
// and delete routes only — ownership of a specific image is enforced by the
// gallery service, so an admin who is not the owner still gets 403.
func NewHandler(application *app.Application, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := chi.NewRouter()
	if opts.CORS != nil {
		r.Use(opts.CORS.Handler)
	}
	r.Use(middleware.LoggingMiddleware(log))
	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware("gallery", opts.Metrics))
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(opts.Auth.Handler)
			r.Post("/change-password", h.changePassword)
		})
	})

	r.Route("/api/image", func(r chi.Router) {
		r.Use(opts.Auth.Handler)

		r.Get("/get", h.list)
		r.Get("/get/{id}", h.getOne)
		r.Post("/like/{id}", h.toggleLike)
		r.Post("/comment/{id}", h.addComment)
		r.Delete("/comment/{imageId}/{commentId}", h.deleteComment)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(user.RoleAdmin))
			r.Post("/upload", h.upload)
			r.Put("/update/{id}", h.updateTitle)
			r.Delete("/delete/{id}", h.deleteImage)
		})
	})

	return r
}

// --- auth endpoints ---------------------------------------------------------

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	acct, err := h.app.Accounts.Register(r.Context(), payload.Username, payload.Email, payload.Password, payload.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "user registered successfully",
		"user":    acct,
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	token, _, err := h.app.Accounts.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "login successful",
		"accessToken": token,
	})
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	userID := logging.GetUserID(r.Context())
	if err := h.app.Accounts.ChangePassword(r.Context(), userID, payload.OldPassword, payload.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "password changed successfully",
	})
}

// --- image endpoints --------------------------------------------------------

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, errors.Validation("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, r, errors.Validation("file is required, please upload an image"))
		return
	}
	defer file.Close()

	ownerID := logging.GetUserID(r.Context())
	img, err := h.app.Gallery.Upload(r.Context(), ownerID, r.FormValue("title"), file, header.Filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "image uploaded successfully",
		"image":   img,
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	images, err := h.app.Gallery.List(r.Context(), r.URL.Query().Get("sortBy"), r.URL.Query().Get("sortOrder"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"totalImages": len(images),
		"data":        images,
	})
}

func (h *handler) getOne(w http.ResponseWriter, r *http.Request) {
	img, err := h.app.Gallery.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"image":   img,
	})
}

func (h *handler) updateTitle(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	callerID := logging.GetUserID(r.Context())
	img, err := h.app.Gallery.UpdateTitle(r.Context(), chi.URLParam(r, "id"), payload.Title, callerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "image updated successfully",
		"image":   img,
	})
}

func (h *handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	callerID := logging.GetUserID(r.Context())
	if err := h.app.Gallery.Delete(r.Context(), chi.URLParam(r, "id"), callerID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "image deleted successfully",
	})
}

func (h *handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	callerID := logging.GetUserID(r.Context())
	result, err := h.app.Gallery.ToggleLike(r.Context(), chi.URLParam(r, "id"), callerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	ctx := r.Context()
	comments, err := h.app.Gallery.AddComment(ctx, chi.URLParam(r, "id"), logging.GetUserID(ctx), logging.GetUsername(ctx), payload.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "comment added",
		"comments": comments,
	})
}

func (h *handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comments, err := h.app.Gallery.DeleteComment(ctx, chi.URLParam(r, "imageId"), chi.URLParam(r, "commentId"), logging.GetUserID(ctx))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "comment deleted successfully",
		"comments": comments,
	})
}

// --- helpers ----------------------------------------------------------------

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps taxonomy errors to their HTTP status. Anything outside the
// taxonomy is logged and reported as a generic internal failure; raw error
// detail never reaches the caller.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		h.log.WithContext(r.Context()).WithError(err).Error("unexpected failure")
		serviceErr = errors.Internal("something went wrong, please try again", err)
	} else if serviceErr.Code == errors.CodeInternal || serviceErr.Code == errors.CodeUpstreamFailure {
		h.log.WithContext(r.Context()).WithError(err).Error("request failed")
	}

	writeJSON(w, serviceErr.HTTPStatus, map[string]interface{}{
		"success": false,
		"message": serviceErr.Message,
	})
}
