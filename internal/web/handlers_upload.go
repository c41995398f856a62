package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/playlist-api/internal/core"
)

// uploadField is the multipart field carrying the artist CSV.
const uploadField = "artistFile"

type uploadResponse struct {
	Message string `json:"message"`
	*core.UploadResult
}

// handleUploadArtist imports one artist CSV. The artist name is the file
// name without its .csv extension.
func (s *Server) handleUploadArtist(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if isTooLarge(err) {
			s.fail(w, r, core.Validationf("file too large: limit is %d bytes", maxSize))
			return
		}
		s.fail(w, r, core.Validationf("invalid request body: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.fail(w, r, core.Validationf("no file provided in field %q", uploadField))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	result, err := s.service.UploadArtistCSV(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message: fmt.Sprintf("File %s uploaded. Artist %q added/updated.",
			header.Filename, result.ArtistName),
		UploadResult: result,
	})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
