package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"rentoo/internal/logger"
	"rentoo/internal/service"
)

// maxMultipartMemory bounds the part of an upload held in memory; the
// rest spills to temporary files.
const maxMultipartMemory = 8 << 20

// UploadItemImage handles POST /api/items/{id}/images with the image in
// the multipart field "file".
func (h *Handler) UploadItemImage(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.WarnContext(r.Context(), "Malformed image upload", "itemID", itemID, "error", err)
		writeValidation(w, "body", []service.FieldError{{Field: "file", Msg: "Field required"}})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		writeValidation(w, "body", []service.FieldError{{Field: "file", Msg: "Field required"}})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	item, err := h.services.Items.AddImage(r.Context(), currentUserID(r.Context()), itemID, header.Filename, contentType, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemOut(item))
}
