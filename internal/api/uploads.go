// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/natours/internal/database/query"
	"github.com/tomtom215/natours/internal/logging"
)

const (
	userImageDir = "img/users"
	tourImageDir = "img/tours"

	// maxTourImages is the number of gallery images a tour accepts.
	maxTourImages = 3
)

// ImageStore writes uploaded images below the public directory.
type ImageStore struct {
	publicDir string
	maxSize   int64
	now       func() time.Time
}

// NewImageStore creates a store rooted at publicDir. Files larger than
// maxSize bytes are rejected.
func NewImageStore(publicDir string, maxSize int64) *ImageStore {
	if maxSize <= 0 {
		maxSize = 5 << 20
	}
	return &ImageStore{publicDir: publicDir, maxSize: maxSize, now: time.Now}
}

// SaveUserPhoto stores a profile photo as user-{id}-{unixms}.{ext} and
// returns the file name.
func (s *ImageStore) SaveUserPhoto(userID primitive.ObjectID, fh *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("user-%s-%d", userID.Hex(), s.now().UnixMilli())
	return s.save(userImageDir, name, fh)
}

// SaveTourCover stores a cover image as tour-{id}-{unixms}-cover.{ext}.
func (s *ImageStore) SaveTourCover(tourID primitive.ObjectID, fh *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("tour-%s-%d-cover", tourID.Hex(), s.now().UnixMilli())
	return s.save(tourImageDir, name, fh)
}

// SaveTourImage stores the i-th (1-based) gallery image as
// tour-{id}-{unixms}-{i}.{ext}.
func (s *ImageStore) SaveTourImage(tourID primitive.ObjectID, i int, fh *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("tour-%s-%d-%d", tourID.Hex(), s.now().UnixMilli(), i)
	return s.save(tourImageDir, name, fh)
}

func (s *ImageStore) save(subdir, base string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxSize {
		return "", badRequest(fmt.Sprintf("image is too large, the limit is %d MB", s.maxSize>>20))
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	ext, err := imageExtension(fh, src)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.publicDir, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}

	filename := base + "." + ext
	dst, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return filename, nil
}

// Remove deletes previously saved files from subdir. Missing files are
// ignored.
func (s *ImageStore) Remove(subdir string, names ...string) {
	dir := filepath.Join(s.publicDir, filepath.FromSlash(subdir))
	for _, name := range names {
		err := os.Remove(filepath.Join(dir, filepath.Base(name)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn().Err(err).Str("file", name).Msg("Failed to remove uploaded image")
		}
	}
}

// imageExtension derives the extension from the declared MIME type, or
// from the content when none was declared. Non-images are rejected.
func imageExtension(fh *multipart.FileHeader, src multipart.File) (string, error) {
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(src, head)
		ct = http.DetectContentType(head[:n])
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind upload: %w", err)
		}
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", badRequest(MsgNotAnImage)
	}
	sub := strings.TrimPrefix(mediaType, "image/")
	if i := strings.IndexByte(sub, '+'); i > 0 {
		sub = sub[:i]
	}
	return sub, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart reads the form with the total size bounded by files
// images of the store's maximum size.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request, files int) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.images.maxSize*int64(files)+maxJSONBody)
	if err := r.ParseMultipartForm(h.images.maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewAppError(http.StatusRequestEntityTooLarge, MsgRequestTooLarge)
		}
		return wrapAppError(http.StatusBadRequest, MsgInvalidBody, err)
	}
	return nil
}

// formBody converts the text fields of a multipart form into a JSON
// object. With coerce set, numbers and booleans keep their type.
func formBody(form *multipart.Form, coerce bool) map[string]any {
	body := make(map[string]any, len(form.Value))
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		v := values[len(values)-1]
		if coerce {
			body[key] = query.Coerce(v)
		} else {
			body[key] = v
		}
	}
	return body
}

// withBody stores body as the JSON document handlers will read.
func withBody(ctx context.Context, body map[string]any) (context.Context, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, bodyContextKey{}, data), nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// serveUploaded runs next with the stored form body and removes the saved
// files again when the request does not succeed.
func (h *Handler) serveUploaded(w http.ResponseWriter, r *http.Request, next http.Handler,
	body map[string]any, subdir string, saved []string) {
	ctx, err := withBody(r.Context(), body)
	if err != nil {
		h.images.Remove(subdir, saved...)
		h.fail(w, r, err)
		return
	}
	if len(saved) == 0 {
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	next.ServeHTTP(ww, r.WithContext(ctx))
	if ww.Status() >= http.StatusBadRequest {
		h.images.Remove(subdir, saved...)
		logging.Ctx(r.Context()).Debug().Strs("files", saved).Int("status", ww.Status()).
			Msg("Removed images of a failed update")
	}
}

// UploadUserPhoto accepts a multipart updateMe request, saves the photo
// field and exposes the form as a JSON body. JSON requests pass through.
func (h *Handler) UploadUserPhoto(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMultipart(r) {
			next.ServeHTTP(w, r)
			return
		}
		u, err := currentUser(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.parseMultipart(w, r, 1); err != nil {
			h.fail(w, r, err)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		body := formBody(r.MultipartForm, false)
		var saved []string
		if fh := firstFile(r.MultipartForm, "photo"); fh != nil {
			name, err := h.images.SaveUserPhoto(u.ID, fh)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			logging.Ctx(r.Context()).Debug().Str("file", name).Msg("Saved user photo")
			body["photo"] = name
			saved = append(saved, name)
		}
		h.serveUploaded(w, r, next, body, userImageDir, saved)
	})
}

// UploadTourImages accepts a multipart tour update with one imageCover and
// up to three images, saves them and exposes the form as a JSON body.
func (h *Handler) UploadTourImages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMultipart(r) {
			next.ServeHTTP(w, r)
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.parseMultipart(w, r, maxTourImages+1); err != nil {
			h.fail(w, r, err)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		files := r.MultipartForm.File["images"]
		if len(files) > maxTourImages {
			h.fail(w, r, badRequest(fmt.Sprintf("a tour accepts at most %d images", maxTourImages)))
			return
		}

		body := formBody(r.MultipartForm, true)
		var saved []string
		abort := func(err error) {
			h.images.Remove(tourImageDir, saved...)
			h.fail(w, r, err)
		}

		if fh := firstFile(r.MultipartForm, "imageCover"); fh != nil {
			name, err := h.images.SaveTourCover(id, fh)
			if err != nil {
				abort(err)
				return
			}
			body["imageCover"] = name
			saved = append(saved, name)
		}

		if len(files) > 0 {
			images := make([]string, 0, len(files))
			for i, fh := range files {
				name, err := h.images.SaveTourImage(id, i+1, fh)
				if err != nil {
					abort(err)
					return
				}
				images = append(images, name)
				saved = append(saved, name)
			}
			body["images"] = images
		}
		h.serveUploaded(w, r, next, body, tourImageDir, saved)
	})
}
