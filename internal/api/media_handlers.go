package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/example/event-ticketing/internal/media"
)

// errUploadTooLarge is returned when a multipart body exceeds the upload limit.
var errUploadTooLarge = errors.New("upload exceeds the size limit")

type RemoveMediaRequest struct {
	FileURL string `json:"fileUrl" validate:"required,url"`
}

func (h *Handlers) UploadSingle(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		h.fail(w, r, err)
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		h.fail(w, r, invalidRequest("file is required"))
		return
	}

	var result *media.Result
	err := withFiles(headers[:1], func(files []media.File) error {
		var err error
		result, err = h.media.UploadSingle(r.Context(), files[0])
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success upload a file", result)
}

func (h *Handlers) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		h.fail(w, r, err)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.fail(w, r, media.ErrNoFiles)
		return
	}

	var results []*media.Result
	err := withFiles(headers, func(files []media.File) error {
		var err error
		results, err = h.media.UploadMultiple(r.Context(), files)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success upload files", results)
}

func (h *Handlers) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	var req RemoveMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.media.Remove(r.Context(), req.FileURL); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success remove file", nil)
}

func (h *Handlers) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errUploadTooLarge
		}
		return invalidRequest("invalid multipart form: %v", err)
	}
	return nil
}

// withFiles opens every header, runs fn and closes the files again.
func withFiles(headers []*multipart.FileHeader, fn func([]media.File) error) error {
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			return fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		files = append(files, media.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}
	defer closeAll(files)
	return fn(files)
}

func closeAll(files []media.File) {
	for _, f := range files {
		if c, ok := f.Content.(multipart.File); ok {
			_ = c.Close()
		}
	}
}
