package settings

import (
	"net/http"
	"tavolo/infras/otel"
	"tavolo/internal/domains/settings/model/dto"
	"tavolo/internal/domains/settings/service"
	"tavolo/shared/constant"
	"tavolo/shared/validator"
	"tavolo/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Settings
	otel    otel.Otel
}

func New(service service.Settings, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/settings", func(routerGroup chi.Router) {
		routerGroup.Get("/expiration", handler.GetExpirationSettings)
		routerGroup.Patch("/expiration", handler.UpdateExpirationSettings)
	})
}

// GetExpirationSettings retrieves the expiration policy.
// @Summary Get expiration settings
// @Description Retrieve the venue-wide auto-expiration policy.
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.SettingsResponse] "Expiration settings"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/settings/expiration [get]
// @Security BearerAuth
func (handler *Handler) GetExpirationSettings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetExpirationSettings")
	defer scope.End()

	settings, err := handler.service.Get(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get expiration settings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Expiration settings retrieved successfully")

	response.WithJSON(w, http.StatusOK, settings)
}

// UpdateExpirationSettings updates the expiration policy.
// @Summary Update expiration settings
// @Description Partially update the venue-wide auto-expiration policy.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.UpdateSettingsRequest true "Update Settings Request"
// @Success 200 {object} response.Data[dto.SettingsResponse] "Settings after the update"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/settings/expiration [patch]
// @Security BearerAuth
func (handler *Handler) UpdateExpirationSettings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateExpirationSettings")
	defer scope.End()

	req := dto.UpdateSettingsRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	settings, err := handler.service.Update(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update expiration settings")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Expiration settings updated successfully by user " + user)

	response.WithJSON(w, http.StatusOK, settings)
}
