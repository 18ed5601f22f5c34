package api

import (
	"errors"
	"io"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/familytree/pkg/blob"
	errs "github.com/matzehuels/familytree/pkg/errors"
)

// allowedImageTypes lists the accepted upload content types.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

const (
	defaultImageType  = "image/jpeg"
	defaultImageExt   = "jpg"
	imageCacheControl = "public, max-age=31536000, immutable"
)

var extRe = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

type uploadResponse struct {
	Key string `json:"key"`
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	limit := s.maxUpload + uploadOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > limit {
			s.writeError(w, r, s.errTooLarge())
			return
		}
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "no file provided"))
		return
	}
	defer file.Close()
	if header.Size > s.maxUpload {
		s.writeError(w, r, s.errTooLarge())
		return
	}

	personID := strings.TrimSpace(r.FormValue("personId"))
	if personID != "" {
		if err := errs.ValidateID("personId", personID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	var body io.Reader = file
	contentType := blob.BaseType(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType, body, err = blob.DetectContentType(file)
		if err != nil {
			s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidFile, err, "read upload"))
			return
		}
		contentType = blob.BaseType(contentType)
	}
	if !allowedImageTypes[contentType] {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidFile, "invalid file type, allowed: jpg, png, gif, webp"))
		return
	}

	key := imageKey(personID, header.Filename)
	obj, err := s.bucket.Put(r.Context(), key, body, contentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("stored image", "key", obj.Key, "type", contentType, "size", obj.Size)
	writeJSON(w, http.StatusCreated, uploadResponse{Key: obj.Key})
}

func (s *Server) errTooLarge() error {
	return errs.New(errs.ErrCodeInvalidFile, "file too large, max size: %d MiB", s.maxUpload>>20)
}

// imageKey returns "{personID}/{uuid}.{ext}", or "{uuid}.{ext}" without a
// person. The extension comes from the filename.
func imageKey(personID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !extRe.MatchString(ext) {
		ext = defaultImageExt
	}
	name := uuid.NewString() + "." + ext
	if personID == "" {
		return name
	}
	return personID + "/" + name
}

func imageKeyParam(r *http.Request) (string, error) {
	key := chi.URLParam(r, "*")
	if key == "" {
		return "", errs.New(errs.ErrCodeInvalidPath, "missing image key")
	}
	return key, errs.ValidateObjectKey(key)
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	key, err := imageKeyParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, obj, err := s.bucket.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	h := w.Header()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = defaultImageType
	}
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", imageCacheControl)
	if obj.ETag != "" {
		h.Set("ETag", obj.ETag)
		if r.Header.Get("If-None-Match") == obj.ETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	if obj.Size > 0 {
		h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("image stream interrupted", "key", key, "err", err)
	}
}

func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request) {
	key, err := imageKeyParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.bucket.Delete(r.Context(), key); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
