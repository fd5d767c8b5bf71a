// Package backend is a local stand-in for the recipe service: the list and
// create endpoints plus a storage target that honours the upload descriptors
// it issues.
package backend

import (
	"crypto/md5"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"reci/internal/db"
	"reci/internal/model"
)

// Validation messages returned as {"errorMessage": ...}.
const (
	msgRequiredKeys   = "Required keys not found."
	msgStepCount      = "Insufficient number of steps. At least 3 expected."
	msgEmptyFields    = "Required fields cannot be empty."
	msgInvalidMime    = "Invalid MIME type."
	msgInvalidDefault = "Invalid default MIME type."
	msgInvalidBody    = "Invalid request body."
)

const (
	imageDir     = "images"
	thumbnailDir = "thumbnails"
	minSteps     = 3

	maxIDAttempts = 5
)

// Options configures a Server.
type Options struct {
	DataDir        string
	PublicURL      string
	PageSize       int
	MaxUploadBytes int64
	PolicyTTL      time.Duration
}

// Server handles the recipe API and object storage over one sqlite database.
type Server struct {
	db         *sql.DB
	objectsDir string
	publicURL  string
	pageSize   int
	maxUpload  int64
	policyTTL  time.Duration
	now        func() time.Time
	newID      func(time.Time) model.RecipeID
	logger     *slog.Logger
}

func New(database *sql.DB, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 1 << 20
	}
	if opts.PolicyTTL <= 0 {
		opts.PolicyTTL = 5 * time.Minute
	}
	return &Server{
		db:         database,
		objectsDir: filepath.Join(opts.DataDir, "objects"),
		publicURL:  strings.TrimRight(opts.PublicURL, "/"),
		pageSize:   opts.PageSize,
		maxUpload:  opts.MaxUploadBytes,
		policyTTL:  opts.PolicyTTL,
		now:        time.Now,
		newID:      NewRecipeID,
		logger:     logger,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/recipes", s.handleRecipes)
	mux.HandleFunc("POST /uploads", s.handleUpload)
	mux.HandleFunc("GET /objects/{key...}", s.handleObject)
	return s.logRequests(withCORS(mux))
}

// NewRecipeID returns 8 hex digits of unix time followed by 6 random hex
// digits, so ids sort by creation time.
func NewRecipeID(now time.Time) model.RecipeID {
	return model.RecipeID(fmt.Sprintf("%08x%06x", now.Unix(), rand.IntN(1<<24)))
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		s.listRecipes(w, r)
	case http.MethodPost:
		s.createRecipe(w, r)
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported method %q", r.Method))
	}
}

type listResponse struct {
	Recipes []model.Recipe `json:"recipes"`
	LastKey string         `json:"lastKey,omitempty"`
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	records, more, err := db.ListRecipes(s.db, r.URL.Query().Get("lastKey"), s.pageSize)
	if err != nil {
		s.logger.Error("list recipes failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not list recipes.")
		return
	}

	resp := listResponse{Recipes: make([]model.Recipe, 0, len(records))}
	for _, rec := range records {
		resp.Recipes = append(resp.Recipes, s.toState(rec))
	}
	if more && len(records) > 0 {
		resp.LastKey = string(records[len(records)-1].Recipe.ID)
	}
	respondJSON(w, http.StatusOK, resp)
}

type createRequest struct {
	MimeType          string   `json:"mimeType"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Steps             []string `json:"steps"`
	ImagesLoaded      bool     `json:"imagesLoaded"`
	ImageFileSize     *int64   `json:"imageFileSize"`
	ImageMD5          *string  `json:"imageMd5"`
	ThumbnailFileSize *int64   `json:"thumbnailFileSize"`
	ThumbnailMD5      *string  `json:"thumbnailMd5"`
}

type createResponse struct {
	Recipe model.Recipe         `json:"recipe"`
	URLs   *model.UploadTargets `json:"urls,omitempty"`
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	for _, k := range []string{"mimeType", "title", "description", "steps", "imagesLoaded"} {
		if _, ok := keys[k]; !ok {
			respondError(w, http.StatusBadRequest, msgRequiredKeys)
			return
		}
	}

	var req createRequest
	if err := json.Unmarshal(body, &req); err != nil {
		if strings.Contains(err.Error(), "steps") {
			respondError(w, http.StatusBadRequest, msgStepCount)
			return
		}
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if len(req.Steps) < minSteps {
		respondError(w, http.StatusBadRequest, msgStepCount)
		return
	}
	fields := append([]string{req.MimeType, req.Title, req.Description}, req.Steps...)
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			respondError(w, http.StatusBadRequest, msgEmptyFields)
			return
		}
	}
	mt := model.MimeType(req.MimeType)
	if !mt.Valid() {
		respondError(w, http.StatusBadRequest, msgInvalidMime)
		return
	}

	if req.ImagesLoaded {
		if req.ImageFileSize == nil || req.ImageMD5 == nil || req.ThumbnailFileSize == nil || req.ThumbnailMD5 == nil {
			respondError(w, http.StatusBadRequest, msgRequiredKeys)
			return
		}
	} else if mt != model.DefaultMimeType {
		respondError(w, http.StatusBadRequest, msgInvalidDefault)
		return
	}

	now := s.now()
	rec := db.RecipeRecord{Recipe: model.Recipe{
		Title:       req.Title,
		Description: req.Description,
		MimeType:    mt,
		Steps:       req.Steps,
	}}
	if err := s.insertWithFreshID(&rec, req.ImagesLoaded, now); err != nil {
		s.logger.Error("insert recipe failed", "id", rec.Recipe.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Could not save recipe.")
		return
	}

	var targets *model.UploadTargets
	if req.ImagesLoaded {
		image, err := s.presign(rec.ImageKey, mt, *req.ImageFileSize, *req.ImageMD5, now)
		if err != nil {
			s.logger.Error("presign image failed", "id", rec.Recipe.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not prepare upload.")
			return
		}
		thumb, err := s.presign(rec.ThumbnailKey, mt, *req.ThumbnailFileSize, *req.ThumbnailMD5, now)
		if err != nil {
			s.logger.Error("presign thumbnail failed", "id", rec.Recipe.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not prepare upload.")
			return
		}
		targets = &model.UploadTargets{Image: image, Thumbnail: thumb}
	}
	s.logger.Info("recipe created", "id", rec.Recipe.ID, "title", rec.Recipe.Title, "images", req.ImagesLoaded)

	respondJSON(w, http.StatusOK, createResponse{Recipe: s.toState(rec), URLs: targets})
}

// insertWithFreshID assigns an id and object keys to rec and stores it,
// drawing a new id when the random suffix collides with an existing recipe.
func (s *Server) insertWithFreshID(rec *db.RecipeRecord, withImages bool, now time.Time) error {
	var err error
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		rec.Recipe.ID = s.newID(now)
		if withImages {
			base := string(rec.Recipe.ID) + "." + rec.Recipe.MimeType.Extension()
			rec.ImageKey = path.Join(imageDir, base)
			rec.ThumbnailKey = path.Join(thumbnailDir, base)
		}
		err = db.InsertRecipe(s.db, *rec)
		if !errors.Is(err, model.ErrDuplicate) {
			return err
		}
		s.logger.Warn("recipe id collision", "id", rec.Recipe.ID, "attempt", attempt)
	}
	return err
}

func (s *Server) presign(key string, mt model.MimeType, size int64, digest string, now time.Time) (model.UploadDescriptor, error) {
	policy := db.UploadPolicy{
		Token:         uuid.NewString(),
		ObjectKey:     key,
		ContentType:   string(mt),
		ContentLength: size,
		ContentMD5:    digest,
		ExpiresAt:     now.Add(s.policyTTL),
	}
	if err := db.InsertPolicy(s.db, policy); err != nil {
		return model.UploadDescriptor{}, err
	}
	return model.UploadDescriptor{
		URL: s.publicURL + "/uploads",
		Fields: map[string]string{
			"key":                   key,
			"policy":                policy.Token,
			"success_action_status": strconv.Itoa(http.StatusCreated),
			"Cache-Control":         fmt.Sprintf("max-age=%d", int(s.policyTTL.Seconds())),
			"Content-Type":          string(mt),
			"Content-Length":        strconv.FormatInt(size, 10),
			"Content-MD5":           digest,
		},
	}, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+64<<10)
	if err := r.ParseMultipartForm(s.maxUpload + 64<<10); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed upload form.")
		return
	}

	policy, err := db.ConsumePolicy(s.db, r.FormValue("policy"), s.now())
	switch {
	case errors.Is(err, db.ErrPolicyNotFound), errors.Is(err, db.ErrPolicyUsed), errors.Is(err, db.ErrPolicyExpired):
		s.logger.Warn("upload refused", "key", r.FormValue("key"), "reason", err)
		respondError(w, http.StatusForbidden, "Upload policy rejected.")
		return
	case err != nil:
		s.logger.Error("consume policy failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not verify upload.")
		return
	}
	if r.FormValue("key") != policy.ObjectKey {
		respondError(w, http.StatusForbidden, "Upload key does not match policy.")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	if int64(len(data)) > s.maxUpload {
		respondError(w, http.StatusBadRequest, "File exceeds the upload limit.")
		return
	}
	if int64(len(data)) != policy.ContentLength {
		respondError(w, http.StatusBadRequest, "Content length does not match policy.")
		return
	}
	sum := md5.Sum(data)
	if base64.StdEncoding.EncodeToString(sum[:]) != policy.ContentMD5 {
		respondError(w, http.StatusBadRequest, "Content MD5 does not match policy.")
		return
	}

	dest, err := s.objectPath(policy.ObjectKey)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid object key.")
		return
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		s.logger.Error("create object dir failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not store object.")
		return
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		s.logger.Error("write object failed", "key", policy.ObjectKey, "error", err)
		respondError(w, http.StatusInternalServerError, "Could not store object.")
		return
	}

	s.logger.Info("object stored", "key", policy.ObjectKey, "bytes", len(data))
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	p, err := s.objectPath(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	switch path.Ext(key) {
	case ".jpg":
		w.Header().Set("Content-Type", string(model.MimeJPEG))
	case ".png":
		w.Header().Set("Content-Type", string(model.MimePNG))
	case ".webp":
		w.Header().Set("Content-Type", string(model.MimeWEBP))
	}
	http.ServeFile(w, r, p)
}

func (s *Server) objectPath(key string) (string, error) {
	local := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.objectsDir, local), nil
}

func (s *Server) toState(rec db.RecipeRecord) model.Recipe {
	r := rec.Recipe.Clone()
	if rec.ImageKey != "" {
		r.ImageURL = s.publicURL + "/objects/" + rec.ImageKey
	}
	if rec.ThumbnailKey != "" {
		r.ThumbnailURL = s.publicURL + "/objects/" + rec.ThumbnailKey
	}
	return r
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"errorMessage": message})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
