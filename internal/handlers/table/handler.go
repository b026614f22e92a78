package table

import (
	"net/http"
	"tavolo/infras/otel"
	"tavolo/internal/domains/table/model"
	"tavolo/internal/domains/table/model/dto"
	"tavolo/internal/domains/table/service"
	"tavolo/shared"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/validator"
	"tavolo/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Table
	otel    otel.Otel
}

func New(service service.Table, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/tables", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateTable)
		routerGroup.Get("/", handler.GetTables)
		routerGroup.Get("/{id}", handler.GetTableByID)
		routerGroup.Patch("/{id}", handler.UpdateTable)
		routerGroup.Delete("/{id}", handler.DeleteTable)
	})
}

// CreateTable handles the creation of a new table.
// @Summary Create a new table
// @Description Create a new table on the venue floor plan.
// @Tags Table
// @Accept json
// @Produce json
// @Param request body dto.CreateTableRequest true "Create Table Request"
// @Success 201 {object} response.Data[dto.TableResponse] "Table created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables [post]
// @Security BearerAuth
func (handler *Handler) CreateTable(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateTable")
	defer scope.End()

	req := dto.CreateTableRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	table, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create table")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Table created successfully by user " + user)

	response.WithJSON(writer, http.StatusCreated, table)
}

// GetTables retrieves all tables based on query parameters.
// @Summary Get all tables
// @Description Retrieve all tables with optional filtering and pagination.
// @Tags Table
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param table_type query string false "Filter by table type (standard, booth, bar, outdoor, private)"
// @Param is_available query boolean false "Filter by availability"
// @Success 200 {object} response.Data[dto.GetTablesResponse] "List of tables"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables [get]
// @Security BearerAuth
func (handler *Handler) GetTables(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTables")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	tableType := r.URL.Query().Get(model.FieldTableType)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if tableType != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldTableType,
			Operator: gDto.FilterOperatorEq,
			Value:    tableType,
			Table:    model.TableName,
		})
	}

	if available := shared.ConvertStringToBool(r.URL.Query().Get(model.FieldIsAvailable)); available != nil {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldIsAvailable,
			Operator: gDto.FilterOperatorEq,
			Value:    *available,
			Table:    model.TableName,
		})
	}

	tables, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get tables")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Tables retrieved successfully")

	response.WithJSON(w, http.StatusOK, tables)
}

// GetTableByID retrieves a table by its ID.
// @Summary Get a table by ID
// @Description Retrieve a table by its unique identifier.
// @Tags Table
// @Accept json
// @Produce json
// @Param id path string true "Table ID"
// @Success 200 {object} response.Data[dto.TableResponse] "Table details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetTableByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTableByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	table, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get table by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Table retrieved successfully")

	response.WithJSON(w, http.StatusOK, table)
}

// UpdateTable updates an existing table by its ID.
// @Summary Update a table by ID
// @Description Update the descriptive fields of an existing table.
// @Tags Table
// @Accept json
// @Produce json
// @Param id path string true "Table ID"
// @Param request body dto.UpdateTableRequest true "Update Table Request"
// @Success 200 {object} response.Message "Table updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateTable")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateTableRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update table")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Table updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Table updated successfully")
}

// DeleteTable deletes a table by its ID.
// @Summary Delete a table by ID
// @Description Delete a table. A table holding an active reservation cannot be deleted.
// @Tags Table
// @Accept json
// @Produce json
// @Param id path string true "Table ID"
// @Success 200 {object} response.Message "Table deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteTable")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete table")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Table deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Table deleted successfully")
}
