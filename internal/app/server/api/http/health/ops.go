package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Liveness probe",
		Description: "Reports whether the sync service is up. Clients call this before a sync cycle to distinguish offline from unauthenticated.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
