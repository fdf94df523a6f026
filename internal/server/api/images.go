package api

import (
	"net/http"

	"github.com/ayusman/edorun/internal/store"
)

// ImagesHandler lists the still-image library.
type ImagesHandler struct {
	store *store.Store
}

// NewImagesHandler creates a new ImagesHandler with the given store.
func NewImagesHandler(s *store.Store) *ImagesHandler {
	return &ImagesHandler{store: s}
}

type imageResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type listImagesResponse struct {
	Images []imageResponse `json:"images"`
}

// ServeHTTP handles GET /api/images.
func (h *ImagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	images, err := h.store.Images().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list images")
		return
	}

	resp := listImagesResponse{Images: make([]imageResponse, 0, len(images))}
	for _, img := range images {
		resp.Images = append(resp.Images, imageResponse{
			ID:        img.ID,
			Name:      img.Name,
			CreatedAt: img.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
