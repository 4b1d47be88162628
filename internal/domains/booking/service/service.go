package service

import (
	"context"
	"fmt"
	"tripmarket/config"
	"tripmarket/infras/kafka"
	"tripmarket/infras/otel"
	agencyService "tripmarket/internal/domains/agency/service"
	"tripmarket/internal/domains/booking/model"
	"tripmarket/internal/domains/booking/model/dto"
	"tripmarket/internal/domains/booking/repository"
	tripModel "tripmarket/internal/domains/trip/model"
	tripRepository "tripmarket/internal/domains/trip/repository"
	"tripmarket/shared"
	"tripmarket/shared/cache"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	eventBookingCreated       = "booking.created"
	eventBookingStatusChanged = "booking.status_changed"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	GetAllForOwner(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) error
}

type serviceImpl struct {
	repo     repository.Booking
	tripRepo tripRepository.Trip
	agency   agencyService.Agency
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
	producer kafka.Client
}

func New(
	repo repository.Booking,
	tripRepo tripRepository.Trip,
	agency agencyService.Agency,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
	producer kafka.Client,
) Booking {
	return &serviceImpl{
		repo:     repo,
		tripRepo: tripRepo,
		agency:   agency,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
		producer: producer,
	}
}

// Create records a reservation. The capacity slot is taken through an atomic
// conditional increment before the booking row is written, so concurrent
// requests near full capacity cannot overbook; a reserved slot is returned
// when the write afterwards fails.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = shared.AuthorizeOwner(ctx, req.CustomerID); err != nil {
		return res, err
	}

	trip, err := s.tripRepo.Get(ctx, shared.FilterByID(req.TripID, tripModel.FieldID, tripModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get trip")

		return res, fmt.Errorf("failed to get trip: %w", err)
	}

	if trip.ID == constant.Empty {
		return res, failure.NotFound("trip not found") //nolint:wrapcheck
	}

	reserved, err := s.tripRepo.ReserveSlot(ctx, trip.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to reserve booking slot")

		return res, fmt.Errorf("failed to reserve booking slot: %w", err)
	}

	if !reserved {
		return res, failure.CapacityExceeded //nolint:wrapcheck
	}

	user := shared.CallerID(ctx)
	booking := req.ToModel(trip, user)

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		if releaseErr := s.tripRepo.ReleaseSlot(ctx, trip.ID); releaseErr != nil {
			log.Error().Err(releaseErr).Str("tripID", trip.ID).Msg("failed to release reserved slot")
		}

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	res.FromModel(booking)

	s.invalidateBookingCaches(ctx, booking.ID)
	s.publishEvent(ctx, eventBookingCreated, res)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

// GetAllForOwner lists the bookings of the agency registered for the caller.
// The agency filter always comes from the caller's own agency, never from the
// request, so one agency can never read another agency's ledger.
func (s *serviceImpl) GetAllForOwner(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAllForOwner")
	defer scope.End()
	defer scope.TraceIfError(err)

	caller := shared.CallerID(ctx)
	if caller == constant.Empty {
		return res, failure.Unauthorized("unauthorized") //nolint:wrapcheck
	}

	agency, err := s.agency.GetByOwner(ctx, caller)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	filter.Filters = append(filter.Filters, gDto.Filter{
		Field:    model.FieldAgencyID,
		Operator: gDto.FilterOperatorEq,
		Value:    agency.ID,
		Table:    model.TableName,
	})

	return s.GetAll(ctx, req, filter)
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (total int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &total)
	if err == nil {
		return total, nil
	}

	total, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return total, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return total, nil
}

// Get returns a booking to its customer or to the owner of the agency it
// belongs to.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if shared.CallerID(ctx) != booking.CustomerID {
		if err = s.authorizeAgencyOwner(ctx, booking.AgencyID); err != nil {
			return res, err
		}
	}

	res.FromModel(booking)

	return res, nil
}

// UpdateStatus is agency initiated. Cancelled bookings are immutable and a
// transition into cancelled releases the trip's capacity slot.
func (s *serviceImpl) UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if err = s.authorizeAgencyOwner(ctx, booking.AgencyID); err != nil {
		return err
	}

	if booking.Status == model.StatusCancelled {
		return failure.BadRequestFromString("a cancelled booking cannot change status") //nolint:wrapcheck
	}

	if booking.Status == req.Status {
		return nil
	}

	user := shared.CallerID(ctx)

	updatedFields := shared.TransformFields(struct{}{}, user)
	updatedFields[model.FieldStatus] = req.Status

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if req.Status == model.StatusCancelled {
		if err = s.tripRepo.ReleaseSlot(ctx, booking.TripID); err != nil {
			log.Error().Err(err).Str("tripID", booking.TripID).Msg("failed to release slot for cancelled booking")
		}
	}

	s.invalidateBookingCaches(ctx, id)
	s.publishEvent(ctx, eventBookingStatusChanged, map[string]any{
		"booking_id": id,
		"status":     req.Status,
	})

	return nil
}

func (s *serviceImpl) authorizeAgencyOwner(ctx context.Context, agencyID string) error {
	agency, err := s.agency.Get(ctx, agencyID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return shared.AuthorizeOwner(ctx, agency.OwnerID)
}

func (s *serviceImpl) invalidateBookingCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}

func (s *serviceImpl) publishEvent(ctx context.Context, key string, payload any) {
	if !s.cfg.External.Kafka.Enable || s.producer == nil {
		return
	}

	go func() {
		c := context.WithoutCancel(ctx)

		message := kafka.Message{
			Key:   key,
			Value: payload,
		}

		if err := s.producer.SendMessages(c, s.cfg.External.Kafka.Topic, message); err != nil {
			log.Error().Err(err).Str("event", key).Msg("failed to publish booking event")
		}
	}()
}
