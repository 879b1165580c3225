package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) syncOp(id, slug string) huma.Operation {
	return huma.Operation{
		OperationID: id,
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/" + slug,
		Summary:     "Merge one batch of " + slug,
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
