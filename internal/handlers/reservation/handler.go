package reservation

import (
	"net/http"
	"strconv"
	"tavolo/infras/otel"
	"tavolo/internal/domains/reservation/model"
	"tavolo/internal/domains/reservation/model/dto"
	"tavolo/internal/domains/reservation/service"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/validator"
	"tavolo/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reservations", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateReservation)
		routerGroup.Get("/", handler.GetReservations)
		routerGroup.Get("/export", handler.ExportReservations)
		routerGroup.Post("/bulk", handler.BulkAction)
		routerGroup.Get("/{id}", handler.GetReservationByID)
		routerGroup.Patch("/{id}", handler.UpdateReservation)
		routerGroup.Delete("/{id}", handler.DeleteReservation)
		routerGroup.Post("/{id}/transition", handler.TransitionReservation)
	})
}

// CreateReservation handles the creation of a new reservation.
// @Summary Create a new reservation
// @Description Create a new reservation in pending state with the provided guest details.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param request body dto.CreateReservationRequest true "Create Reservation Request"
// @Success 201 {object} response.Data[dto.ReservationResponse] "Reservation created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations [post]
func (handler *Handler) CreateReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateReservation")
	defer scope.End()

	req := dto.CreateReservationRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	reservation, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create reservation")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation created successfully for guest " + reservation.GuestName)

	response.WithJSON(writer, http.StatusCreated, reservation)
}

// GetReservations retrieves all reservations based on query parameters.
// @Summary Get all reservations
// @Description Retrieve all reservations with optional filtering, search, and pagination.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending, confirmed, booked, cancelled, rejected, expired, completed, no-show)"
// @Param table_id query string false "Filter by assigned table ID"
// @Param date_from query string false "Filter by reservation date lower bound (YYYY-MM-DD)"
// @Param date_to query string false "Filter by reservation date upper bound (YYYY-MM-DD)"
// @Param search query string false "Search by guest name, phone, or reservation ID"
// @Success 200 {object} response.Data[dto.GetReservationsResponse] "List of reservations"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations [get]
// @Security BearerAuth
func (handler *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservations")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filter := dto.ReservationFilter{
		Status:     r.URL.Query().Get(model.FieldStatus),
		TableID:    r.URL.Query().Get(model.FieldTableID),
		DateFrom:   r.URL.Query().Get("date_from"),
		DateTo:     r.URL.Query().Get("date_to"),
		SearchTerm: r.URL.Query().Get("search"),
	}

	reservations, err := handler.service.GetAll(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservations)
}

// ExportReservations renders the filtered reservation list as CSV.
// @Summary Export reservations as CSV
// @Description Export reservations matching the filter as a CSV file, optionally archived to object storage.
// @Tags Reservation
// @Accept json
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Param date_from query string false "Filter by reservation date lower bound (YYYY-MM-DD)"
// @Param date_to query string false "Filter by reservation date upper bound (YYYY-MM-DD)"
// @Param archive query boolean false "Archive the export to object storage and return its URL"
// @Success 200 {string} string "CSV payload"
// @Failure 400 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/reservations/export [get]
// @Security BearerAuth
func (handler *Handler) ExportReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ExportReservations")
	defer scope.End()

	filter := dto.ReservationFilter{
		Status:     r.URL.Query().Get(model.FieldStatus),
		TableID:    r.URL.Query().Get(model.FieldTableID),
		DateFrom:   r.URL.Query().Get("date_from"),
		DateTo:     r.URL.Query().Get("date_to"),
		SearchTerm: r.URL.Query().Get("search"),
	}

	archive, _ := strconv.ParseBool(r.URL.Query().Get("archive"))

	data, url, err := handler.service.ExportCSV(ctx, filter, archive)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export reservations")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations exported successfully")

	if archive {
		response.WithJSON(w, http.StatusOK, dto.ExportReservationsResponse{URL: url})

		return
	}

	w.Header().Set(constant.RequestHeaderContentType, "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.csv"`)
	w.WriteHeader(http.StatusOK)

	if _, err = w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write CSV response")
	}
}

// BulkAction applies one action to a batch of reservations.
// @Summary Apply a bulk action
// @Description Apply confirm, cancel, reject, assign-table, delete, or send-reminder to a batch of reservations. The batch succeeds or fails as a whole. The assign-table action accepts exactly one reservation, since a table seats one party.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param request body dto.BulkActionRequest true "Bulk Action Request"
// @Success 200 {object} response.Data[dto.BulkActionResponse] "Bulk action applied"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/reservations/bulk [post]
// @Security BearerAuth
func (handler *Handler) BulkAction(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".BulkAction")
	defer scope.End()

	req := dto.BulkActionRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	affected, err := handler.service.ExecuteBulk(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to execute bulk action")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Bulk " + req.Action + " applied successfully by user " + user)

	response.WithJSON(w, http.StatusOK, dto.BulkActionResponse{
		Action:   req.Action,
		Affected: affected,
	})
}

// GetReservationByID retrieves a reservation by its ID.
// @Summary Get a reservation by ID
// @Description Retrieve a reservation by its unique identifier.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Reservation details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetReservationByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	reservation, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservation by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservation)
}

// UpdateReservation updates the guest-editable fields of a reservation.
// @Summary Update a reservation by ID
// @Description Update guest details of an existing reservation. Status changes go through the transition endpoint.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.UpdateReservationRequest true "Update Reservation Request"
// @Success 200 {object} response.Message "Reservation updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateReservationRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update reservation")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Reservation updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Reservation updated successfully")
}

// DeleteReservation deletes a reservation by its ID.
// @Summary Delete a reservation by ID
// @Description Delete a reservation, releasing its table if one is held.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Message "Reservation deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete reservation")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Reservation deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Reservation deleted successfully")
}

// TransitionReservation moves a reservation to a new lifecycle status.
// @Summary Transition a reservation
// @Description Move a reservation to a new status, optionally assigning a table when booking. Stale versions are rejected with a conflict.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.TransitionRequest true "Transition Request"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Reservation after the transition"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/reservations/{id}/transition [post]
// @Security BearerAuth
func (handler *Handler) TransitionReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".TransitionReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.TransitionRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	reservation, err := handler.service.Transition(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to transition reservation")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Reservation transitioned to " + reservation.Status + " by user " + user)

	response.WithJSON(w, http.StatusOK, reservation)
}
