package agency

import (
	"net/http"
	"tripmarket/infras/otel"
	"tripmarket/internal/domains/agency/model"
	"tripmarket/internal/domains/agency/model/dto"
	"tripmarket/internal/domains/agency/service"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
	"tripmarket/shared/validator"
	"tripmarket/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Agency
	otel    otel.Otel
}

func New(service service.Agency, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/agencies", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateAgency)
		routerGroup.Get("/", handler.GetAgencies)
		routerGroup.Get("/myagency", handler.GetMyAgency)
		routerGroup.Get("/{id}", handler.GetAgencyByID)
		routerGroup.Patch("/{id}", handler.UpdateAgency)
	})
}

// CreateAgency registers the caller's agency.
// @Summary Register an agency
// @Description Register a travel agency for the authenticated account. One agency per account.
// @Tags Agency
// @Accept json
// @Produce json
// @Param request body dto.CreateAgencyRequest true "Create Agency Request"
// @Success 201 {object} response.Message "Agency created successfully"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/agencies [post]
// @Security BearerAuth
func (handler *Handler) CreateAgency(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateAgency")
	defer scope.End()

	req := dto.CreateAgencyRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create agency")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Agency created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Agency created successfully")
}

// GetAgencies retrieves all agencies based on query parameters.
// @Summary Get all agencies
// @Description Retrieve all agencies with optional filtering and pagination.
// @Tags Agency
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by agency name (partial match)"
// @Param status query string false "Filter by status (active, inactive, pending)"
// @Success 200 {object} response.Data[dto.GetAgenciesResponse] "List of agencies"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/agencies [get]
func (handler *Handler) GetAgencies(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAgencies")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	name := r.URL.Query().Get(model.FieldName)
	status := r.URL.Query().Get(model.FieldStatus)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if name != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldName,
			Operator: gDto.FilterOperatorLike,
			Value:    name,
			Table:    model.TableName,
		})
	}

	if status != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	agencies, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get agencies")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Agencies retrieved successfully")

	response.WithJSON(w, http.StatusOK, agencies)
}

// GetMyAgency retrieves the agency owned by the authenticated account.
// @Summary Get my agency
// @Description Retrieve the agency registered for the authenticated account.
// @Tags Agency
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.AgencyResponse] "Agency details"
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/agencies/myagency [get]
// @Security BearerAuth
func (handler *Handler) GetMyAgency(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyAgency")
	defer scope.End()

	userID, ok := ctx.Value(constant.ContextKeyUserID).(string)
	if !ok || userID == "" {
		err := failure.Unauthorized("unauthorized")

		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user ID from context")

		response.WithError(w, err)

		return
	}

	agency, err := handler.service.GetByOwner(ctx, userID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get agency by owner")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Agency retrieved successfully for user " + userID)

	response.WithJSON(w, http.StatusOK, agency)
}

// GetAgencyByID retrieves an agency by its ID.
// @Summary Get an agency by ID
// @Description Retrieve an agency by its unique identifier.
// @Tags Agency
// @Accept json
// @Produce json
// @Param id path string true "Agency ID"
// @Success 200 {object} response.Data[dto.AgencyResponse] "Agency details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/agencies/{id} [get]
func (handler *Handler) GetAgencyByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAgencyByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	agency, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get agency by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Agency retrieved successfully")

	response.WithJSON(w, http.StatusOK, agency)
}

// UpdateAgency updates an existing agency by its ID.
// @Summary Update an agency by ID
// @Description Update the details of an agency. Only the owner may update it.
// @Tags Agency
// @Accept json
// @Produce json
// @Param id path string true "Agency ID"
// @Param request body dto.UpdateAgencyRequest true "Update Agency Request"
// @Success 200 {object} response.Message "Agency updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/agencies/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateAgency(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateAgency")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateAgencyRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update agency")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Agency updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Agency updated successfully")
}
