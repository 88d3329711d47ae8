package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/gatehouse"
)

// multipartMemory is how much of a multipart upload is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 8 << 20

type Service interface {
	Authenticate(ctx context.Context, creds gatehouse.Credentials) (gatehouse.Identity, error)
	Login(ctx context.Context, username, password string) (gatehouse.Token, error)
	Download(ctx context.Context, path string) (gatehouse.File, error)
	List(ctx context.Context, path string) (gatehouse.Listing, error)
	Upload(ctx context.Context, req gatehouse.UploadRequest, content io.Reader) (gatehouse.UploadResult, error)
	Register(ctx context.Context, username, password string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// MaxUploadSize bounds the upload request body in bytes. Zero means
	// unlimited.
	MaxUploadSize int64
	CORS          CORSConfig
}

// Handler provides HTTP handlers for the gateway operations.
type Handler struct {
	config   HandlerConfig
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:   *config,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns an http.Handler with all routes mounted. /token and
// /healthz are public; everything else requires bearer or basic credentials.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", h.handleHealth)
	r.Post("/token", h.handleToken)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.service))
		r.Get("/files/*", h.handleDownload)
		r.Get("/list", h.handleList)
		r.Get("/list/*", h.handleList)
		r.Post("/upload", h.handleUpload)
		r.Post("/register", h.handleRegister)
		r.Get("/users/me", h.handleMe)
	})

	return r
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type identityResponse struct {
	Username string `json:"username"`
	Disabled bool   `json:"disabled"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed form body")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	if err := h.validate.Struct(req); err != nil {
		WriteUnauthorized(w)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.Download(r.Context(), rawPath(r, "/files"))
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = file.Content.Close() }()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if r.URL.Query().Get("download") == "1" {
		name := file.Path
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}

	http.ServeContent(w, r, file.Path, file.ModTime, file.Content)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.List(r.Context(), rawPath(r, "/list"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, listing)
}

// handleUpload stores the multipart "file" part. The optional "subdirectory"
// and "filename" fields go through the same single percent-decode as URL
// paths, so they must be percent-encoded: a literal '%' is sent as %25.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleError(w, fmt.Errorf("upload: %w", ErrTooLarge))
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_input", "Expected multipart form data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	part, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Missing file part")
		return
	}
	defer func() { _ = part.Close() }()

	filename := r.FormValue("filename")
	if filename == "" {
		filename = header.Filename
	}

	req := gatehouse.UploadRequest{
		Subdirectory: r.FormValue("subdirectory"),
		Filename:     filename,
	}

	result, err := h.service.Upload(r.Context(), req, part)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Username and password are required")
		return
	}

	if err := h.service.Register(r.Context(), req.Username, req.Password); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, identityResponse{Username: req.Username})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w)
		return
	}

	_ = WriteJSON(w, http.StatusOK, identityResponse{
		Username: identity.Username,
		Disabled: identity.Disabled,
	})
}

// rawPath returns the still-escaped request path below prefix. Decoding is
// left to the resolver so that it happens exactly once.
func rawPath(r *http.Request, prefix string) string {
	p := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	return strings.TrimPrefix(p, "/")
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
