package songs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/events"
	"github.com/princekumarofficial/songs-service/internal/http/middleware"
	"github.com/princekumarofficial/songs-service/internal/ingest"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
	"github.com/princekumarofficial/songs-service/internal/utils/response"
)

// UploadField is the multipart field carrying song files
const UploadField = "songs"

type SongHandlers struct {
	catalog   *catalog.Service
	ingest    *ingest.Reconciler
	publisher events.Publisher
	validate  *validator.Validate
	limits    config.Media
}

// NewSongHandlers creates a new song handlers instance
func NewSongHandlers(svc *catalog.Service, rec *ingest.Reconciler, pub events.Publisher, v *validator.Validate, limits config.Media) *SongHandlers {
	return &SongHandlers{
		catalog:   svc,
		ingest:    rec,
		publisher: pub,
		validate:  v,
		limits:    limits,
	}
}

// List returns one page of the catalog
// @Summary List and search songs
// @Description Keyset paginated listing. Pass next_cursor from the previous page as cursor.
// @Description Songs added between two page fetches may or may not appear on later pages,
// @Description depending on where their sort value falls relative to the cursor.
// @Tags songs
// @Produce json
// @Param limit query int false "Page size (1-100, default 20)"
// @Param sortBy query string false "title, createdAt, durationSeconds or playCount (default createdAt)"
// @Param sortOrder query string false "asc or desc (default desc)"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Param query query string false "Free text matched against title and artist"
// @Param genre query string false "Genre facet"
// @Param tags query string false "Comma separated tag facets, any must match"
// @Success 200 {object} catalog.ListResult "Songs retrieved successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /songs [get]
func (h *SongHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Parse query parameters
		q := r.URL.Query()

		params := catalog.ListParams{
			SortBy:    q.Get("sortBy"),
			SortOrder: q.Get("sortOrder"),
			Cursor:    q.Get("cursor"),
			Query:     q.Get("query"),
			Genre:     q.Get("genre"),
			Tags:      q["tags"],
		}
		if raw := q.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid limit: must be a number")))
				return
			}
			params.Limit = limit
		}

		result, err := h.catalog.List(r.Context(), params)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Songs retrieved successfully", result))
	}
}

// Random returns one random song matching the facets
// @Summary Random song
// @Description Picks a song having the genre or any of the tags. Without facets any song may be picked.
// @Tags songs
// @Produce json
// @Param genre query string false "Genre facet"
// @Param tags query string false "Comma separated tag facets"
// @Success 200 {object} songs.Song "Random song retrieved successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Router /songs/random [get]
func (h *SongHandlers) Random() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		song, err := h.catalog.Random(r.Context(), q.Get("genre"), q["tags"])
		if err != nil {
			writeError(w, err)
			return
		}
		if song == nil {
			response.WriteJSON(w, http.StatusOK, response.RequestOK("No songs match the filters", nil))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Random song retrieved successfully", song))
	}
}

// Get returns a single song
// @Summary Get song
// @Tags songs
// @Produce json
// @Param id path int true "Song ID"
// @Success 200 {object} songs.Song "Song retrieved successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Song not found"
// @Router /songs/{id} [get]
func (h *SongHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := songID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		song, err := h.catalog.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Song retrieved successfully", song))
	}
}

// Upload ingests a batch of MP3 files
// @Summary Upload songs
// @Description Uploads up to the configured number of MP3 files. Each file becomes a song titled after
// @Description its file name. Files that fail or whose title already exists are reported as skipped.
// @Tags songs
// @Accept multipart/form-data
// @Produce json
// @Param songs formData file true "MP3 files"
// @Param artist formData string false "Artist, defaults to the file's ID3 artist"
// @Param genre formData string false "Genre"
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} songs.UploadResult "Upload finished"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Security BearerAuth
// @Router /songs/upload [post]
func (h *SongHandlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		// Room for every file plus the form fields
		maxBody := int64(h.limits.MaxFiles)*h.limits.MaxFileSize + 1<<20
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(fmt.Errorf("invalid multipart form: %w", err)))
			return
		}
		defer r.MultipartForm.RemoveAll()

		// Get the uploaded files
		headers := r.MultipartForm.File[UploadField]
		if len(headers) == 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("no files uploaded")))
			return
		}
		if len(headers) > h.limits.MaxFiles {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(
				fmt.Errorf("at most %d files can be uploaded at once", h.limits.MaxFiles)))
			return
		}

		files := make([]ingest.File, 0, len(headers))
		for _, fh := range headers {
			file, err := h.readFile(fh)
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
			files = append(files, file)
		}

		// Metadata shared by every file of the batch
		meta := songs.UploadMetadata{
			Artist: strings.TrimSpace(r.FormValue("artist")),
			Genre:  songs.Genre(strings.ToLower(strings.TrimSpace(r.FormValue("genre")))),
			Tags:   splitTags(r.MultipartForm.Value["tags"]),
		}
		if err := h.validate.Struct(meta); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Partial failures are reported as skipped entries, never as errors
		result := h.ingest.Ingest(r.Context(), files, meta, userID)

		response.WriteJSON(w, http.StatusCreated, response.RequestOK(ingest.Message(result.Summary), result))
	}
}

func (h *SongHandlers) readFile(fh *multipart.FileHeader) (ingest.File, error) {
	if fh.Size > h.limits.MaxFileSize {
		return ingest.File{}, fmt.Errorf("file %s exceeds the %d byte limit", fh.Filename, h.limits.MaxFileSize)
	}
	if ct := fh.Header.Get("Content-Type"); !slices.Contains(h.limits.AllowedMimeTypes, ct) {
		return ingest.File{}, fmt.Errorf("file %s has unsupported content type %q", fh.Filename, ct)
	}

	f, err := fh.Open()
	if err != nil {
		return ingest.File{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ingest.File{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return ingest.File{Name: fh.Filename, Data: data}, nil
}

// Update edits the metadata of a song owned by the caller
// @Summary Update song
// @Tags songs
// @Accept json
// @Produce json
// @Param id path int true "Song ID"
// @Param request body songs.UpdateSongRequest true "Fields to change"
// @Success 200 {object} songs.Song "Song updated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Song not found"
// @Failure 409 {object} response.Response "Title already taken"
// @Security BearerAuth
// @Router /songs/{id} [patch]
func (h *SongHandlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		id, err := songID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		// Parse request body
		var req songs.UpdateSongRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			req.Title = &title
		}
		// Validate request
		if err := h.validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		song, err := h.catalog.Update(r.Context(), id, userID, req.Patch())
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Song updated successfully", song))
	}
}

// Delete removes a song owned by the caller and releases its file
// @Summary Delete song
// @Description The song is removed from the catalog even when releasing its file fails; blob_released reports the outcome.
// @Tags songs
// @Produce json
// @Param id path int true "Song ID"
// @Success 200 {object} catalog.DeleteResult "Song deleted successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Song not found"
// @Security BearerAuth
// @Router /songs/{id} [delete]
func (h *SongHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		id, err := songID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		result, err := h.catalog.Delete(r.Context(), id, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		h.publisher.PublishSongDeleted(userID, result.Song, result.BlobReleased)

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Song deleted successfully", result))
	}
}

// Play counts one play of a song
// @Summary Record a play
// @Tags songs
// @Produce json
// @Param id path int true "Song ID"
// @Success 200 {object} songs.Song "Play recorded"
// @Failure 404 {object} response.Response "Song not found"
// @Router /songs/{id}/play [post]
func (h *SongHandlers) Play() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := songID(r)
		if err != nil {
			writeError(w, err)
			return
		}

		song, err := h.catalog.Play(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Play recorded", song))
	}
}

func songID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, &catalog.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}

func splitTags(values []string) []songs.Tag {
	var tags []songs.Tag
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, songs.Tag(part))
			}
		}
	}
	return songs.NormalizeTags(tags)
}

// writeError maps catalog errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	var upstream *catalog.UpstreamError
	switch {
	case catalog.IsValidation(err):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	case errors.Is(err, catalog.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(catalog.ErrNotFound))
	case errors.Is(err, catalog.ErrForbidden):
		response.WriteJSON(w, http.StatusForbidden, response.GeneralError(catalog.ErrForbidden))
	case errors.Is(err, catalog.ErrConflict):
		response.WriteJSON(w, http.StatusConflict, response.GeneralError(catalog.ErrConflict))
	case errors.As(err, &upstream):
		slog.Error("Blob store failure", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusBadGateway, response.GeneralError(errors.New("blob store unavailable")))
	default:
		slog.Error("Request failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("internal server error")))
	}
}
