package health

import (
	"net/http"
	"tavolo/infras/postgres"
	"tavolo/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	db *postgres.Connection
}

func New(db *postgres.Connection) Handler {
	return Handler{
		db: db,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/health", handler.Health)
}

// Health reports whether the service can reach its database.
// @Summary Health check
// @Description Report service health, including database connectivity.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Message "Service healthy"
// @Failure 503 {object} response.Message "Service unhealthy"
// @Router /v1/health [get]
func (handler *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := handler.db.Read.PingContext(r.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed on read connection")

		response.WithUnhealthy(w)

		return
	}

	if err := handler.db.Write.PingContext(r.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed on write connection")

		response.WithUnhealthy(w)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}
