package stats

import (
	"net/http"
	"tavolo/infras/otel"
	"tavolo/internal/domains/stats/service"
	"tavolo/shared/constant"
	"tavolo/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Stats
	otel    otel.Otel
}

func New(service service.Stats, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/stats", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetStats)
	})
}

// GetStats retrieves the dashboard statistics snapshot.
// @Summary Get dashboard statistics
// @Description Retrieve aggregate reservation and occupancy statistics for the dashboard.
// @Tags Stats
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.StatsResponse] "Statistics snapshot"
// @Failure 500 {object} response.Error
// @Router /v1/stats [get]
// @Security BearerAuth
func (handler *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetStats")
	defer scope.End()

	snapshot, err := handler.service.Snapshot(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get statistics snapshot")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Statistics snapshot retrieved successfully")

	response.WithJSON(w, http.StatusOK, snapshot)
}
