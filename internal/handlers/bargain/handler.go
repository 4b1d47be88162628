package bargain

import (
	"net/http"
	"tripmarket/infras/otel"
	"tripmarket/internal/domains/bargain/model"
	"tripmarket/internal/domains/bargain/model/dto"
	"tripmarket/internal/domains/bargain/service"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
	"tripmarket/shared/validator"
	"tripmarket/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Bargain
	otel    otel.Otel
}

func New(service service.Bargain, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bargains", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBargain)
		routerGroup.Get("/", handler.GetBargains)
		routerGroup.Get("/mybargains", handler.GetMyBargains)
		routerGroup.Get("/{id}", handler.GetBargainByID)
		routerGroup.Patch("/{id}/status", handler.UpdateBargainStatus)
		routerGroup.Delete("/{id}", handler.DeleteBargain)
	})
}

// CreateBargain submits a bargain request against a trip.
// @Summary Create a new bargain request
// @Description Submit a bargain request for a trip. The target agency is resolved from the trip.
// @Tags Bargain
// @Accept json
// @Produce json
// @Param request body dto.CreateBargainRequest true "Create Bargain Request"
// @Success 201 {object} response.Data[dto.BargainResponse] "Created bargain request"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bargains [post]
// @Security BearerAuth
func (handler *Handler) CreateBargain(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBargain")
	defer scope.End()

	req := dto.CreateBargainRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	bargain, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create bargain request")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Bargain request created successfully by user " + user)

	response.WithJSON(writer, http.StatusCreated, bargain)
}

// GetBargains retrieves the bargain requests targeting the caller's agency.
// @Summary Get agency bargain requests
// @Description Retrieve the bargain requests targeting the agency owned by the authenticated user, with optional filtering and pagination.
// @Tags Bargain
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param trip_id query string false "Filter by trip ID"
// @Param status query string false "Filter by status (pending, waiting_list, rejected)"
// @Success 200 {object} response.Data[dto.GetBargainsResponse] "List of bargain requests"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bargains [get]
// @Security BearerAuth
func (handler *Handler) GetBargains(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBargains")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	tripID := r.URL.Query().Get(model.FieldTripID)
	status := r.URL.Query().Get(model.FieldStatus)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if tripID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldTripID,
			Operator: gDto.FilterOperatorEq,
			Value:    tripID,
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

	bargains, err := handler.service.GetAllForOwner(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bargain requests")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bargain requests retrieved successfully")

	response.WithJSON(w, http.StatusOK, bargains)
}

// GetMyBargains retrieves the bargain requests submitted by the authenticated user.
// @Summary Get my bargain requests
// @Description Retrieve all bargain requests submitted by the authenticated customer.
// @Tags Bargain
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending, waiting_list, rejected)"
// @Success 200 {object} response.Data[dto.GetBargainsResponse] "List of bargain requests"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bargains/mybargains [get]
// @Security BearerAuth
func (handler *Handler) GetMyBargains(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBargains")
	defer scope.End()

	userID, ok := ctx.Value(constant.ContextKeyUserID).(string)
	if !ok || userID == "" {
		err := failure.Unauthorized("unauthorized")

		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user ID from context")

		response.WithError(w, err)

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldCustomerID,
				Operator: gDto.FilterOperatorEq,
				Value:    userID,
				Table:    model.TableName,
			},
		},
	}

	if status := r.URL.Query().Get(model.FieldStatus); status != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	bargains, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get my bargain requests")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bargain requests retrieved successfully for user " + userID)

	response.WithJSON(w, http.StatusOK, bargains)
}

// GetBargainByID retrieves a bargain request by its ID.
// @Summary Get a bargain request by ID
// @Description Retrieve a bargain request by its unique identifier. Only the submitting customer or the owner of the target agency may read it.
// @Tags Bargain
// @Accept json
// @Produce json
// @Param id path string true "Bargain Request ID"
// @Success 200 {object} response.Data[dto.BargainResponse] "Bargain request details"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bargains/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBargainByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBargainByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	bargain, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bargain request by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bargain request retrieved successfully")

	response.WithJSON(w, http.StatusOK, bargain)
}

// UpdateBargainStatus updates the status of a bargain request.
// @Summary Update a bargain request status
// @Description Update the status of a bargain request. Only the owner of the target agency may change it, only while the request is pending, and only into waiting_list or rejected.
// @Tags Bargain
// @Accept json
// @Produce json
// @Param id path string true "Bargain Request ID"
// @Param request body dto.UpdateBargainStatusRequest true "Update Bargain Status Request"
// @Success 200 {object} response.Message "Bargain request status updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bargains/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) UpdateBargainStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBargainStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateBargainStatusRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.UpdateStatus(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update bargain request status")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Bargain request status updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Bargain request status updated successfully")
}

// DeleteBargain deletes a bargain request by its ID.
// @Summary Delete a bargain request by ID
// @Description Delete a bargain request. Only the submitting customer may delete it, and only while it is still pending.
// @Tags Bargain
// @Accept json
// @Produce json
// @Param id path string true "Bargain Request ID"
// @Success 200 {object} response.Message "Bargain request deleted successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bargains/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBargain(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBargain")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete bargain request")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Bargain request deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Bargain request deleted successfully")
}
