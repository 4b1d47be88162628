package trip

import (
	"net/http"
	"strings"
	"tripmarket/infras/otel"
	"tripmarket/internal/domains/trip/model"
	"tripmarket/internal/domains/trip/model/dto"
	"tripmarket/internal/domains/trip/service"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
	"tripmarket/shared/validator"
	"tripmarket/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Trip
	otel    otel.Otel
}

func New(service service.Trip, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/trips", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateTrip)
		routerGroup.Get("/", handler.GetTrips)
		routerGroup.Get("/{id}", handler.GetTripByID)
		routerGroup.Patch("/{id}", handler.UpdateTrip)
		routerGroup.Delete("/{id}", handler.DeleteTrip)
	})
}

// CreateTrip creates a trip package with optional image uploads.
// @Summary Create a new trip
// @Description Create a trip package. The request is multipart: a "payload" JSON part and zero or more "images" file parts. Images that fail to upload are listed in the response instead of failing the request.
// @Tags Trip
// @Accept multipart/form-data
// @Produce json
// @Param payload formData string true "Trip payload (JSON)"
// @Param images formData file false "Trip images"
// @Success 201 {object} response.Data[dto.CreateTripResponse] "Created trip including its confirmation code"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/trips [post]
// @Security BearerAuth
func (handler *Handler) CreateTrip(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateTrip")
	defer scope.End()

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")

		response.WithError(writer, failure.BadRequestFromString("invalid multipart form"))

		return
	}

	payload := request.FormValue(constant.FormPayload)

	req := dto.CreateTripRequest{}
	if err := validator.Validate(strings.NewReader(payload), &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request payload")

		response.WithError(writer, err)

		return
	}

	images := request.MultipartForm.File[constant.FormImages]

	trip, err := handler.service.Create(ctx, req, images)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create trip")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Trip created successfully by user " + user)

	response.WithJSON(writer, http.StatusCreated, trip)
}

// GetTrips retrieves all trips based on query parameters.
// @Summary Get all trips
// @Description Retrieve all trips with optional filtering and pagination.
// @Tags Trip
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param agency_id query string false "Filter by agency ID"
// @Param name query string false "Filter by trip name (partial match)"
// @Param status query string false "Filter by status (active, inactive, completed, cancelled)"
// @Success 200 {object} response.Data[dto.GetTripsResponse] "List of trips"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/trips [get]
func (handler *Handler) GetTrips(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTrips")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	agencyID := r.URL.Query().Get(model.FieldAgencyID)
	name := r.URL.Query().Get(model.FieldName)
	status := r.URL.Query().Get(model.FieldStatus)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if agencyID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldAgencyID,
			Operator: gDto.FilterOperatorEq,
			Value:    agencyID,
			Table:    model.TableName,
		})
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

	trips, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get trips")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Trips retrieved successfully")

	response.WithJSON(w, http.StatusOK, trips)
}

// GetTripByID retrieves a trip by its ID.
// @Summary Get a trip by ID
// @Description Retrieve a trip by its unique identifier, including its images.
// @Tags Trip
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} response.Data[dto.TripResponse] "Trip details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/trips/{id} [get]
func (handler *Handler) GetTripByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTripByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	trip, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get trip by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Trip retrieved successfully")

	response.WithJSON(w, http.StatusOK, trip)
}

// UpdateTrip updates an existing trip by its ID.
// @Summary Update a trip by ID
// @Description Update the details of a trip. Only the owner of the trip's agency may update it.
// @Tags Trip
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body dto.UpdateTripRequest true "Update Trip Request"
// @Success 200 {object} response.Message "Trip updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/trips/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateTrip")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateTripRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update trip")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Trip updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Trip updated successfully")
}

// DeleteTrip deletes a trip by its ID.
// @Summary Delete a trip by ID
// @Description Delete a trip and its images. Only the owner of the trip's agency may delete it.
// @Tags Trip
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} response.Message "Trip deleted successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/trips/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteTrip")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete trip")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Trip deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Trip deleted successfully")
}
