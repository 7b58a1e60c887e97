package api

import (
	"net/http"

	"github.com/coproject/backend/database"
	"github.com/rs/zerolog/log"
)

type tagHandler struct {
	responder Responder
	tagRepo   *database.TagRepo
}

func newTagHandler(tagRepo *database.TagRepo) tagHandler {
	return tagHandler{
		responder: NewResponder(log.With().Str("handlerName", "tagHandler").Logger()),
		tagRepo:   tagRepo,
	}
}

// getTags lists every tag with the number of projects using it
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {array} database.TagWithCount
// @Router /tags [get]
func (h tagHandler) getTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.tagRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "tags", err))
			return
		}
		if tags == nil {
			tags = []database.TagWithCount{}
		}
		h.responder.WriteJSON(w, tags)
	}
}
