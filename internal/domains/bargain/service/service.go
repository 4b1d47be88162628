package service

import (
	"context"
	"fmt"
	"tripmarket/config"
	"tripmarket/infras/otel"
	agencyService "tripmarket/internal/domains/agency/service"
	"tripmarket/internal/domains/bargain/model"
	"tripmarket/internal/domains/bargain/model/dto"
	"tripmarket/internal/domains/bargain/repository"
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
	cacheGetAllBargain = "bargain:gets"
	cacheCountBargain  = "bargain:count"
)

type Bargain interface {
	Create(ctx context.Context, req dto.CreateBargainRequest) (dto.BargainResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBargainsResponse, error)
	GetAllForOwner(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBargainsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BargainResponse, error)
	UpdateStatus(ctx context.Context, req dto.UpdateBargainStatusRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo     repository.Bargain
	tripRepo tripRepository.Trip
	agency   agencyService.Agency
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.Bargain,
	tripRepo tripRepository.Trip,
	agency agencyService.Agency,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Bargain {
	return &serviceImpl{
		repo:     repo,
		tripRepo: tripRepo,
		agency:   agency,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

// Create files a price negotiation against a trip. The target agency is taken
// from the trip so the pair always matches.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBargainRequest) (res dto.BargainResponse, err error) {
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

	user := shared.CallerID(ctx)
	bargain := req.ToModel(trip.AgencyID, user)

	if err = s.repo.Insert(ctx, bargain); err != nil {
		log.Error().Err(err).Msg("failed to create bargain request")

		return res, fmt.Errorf("failed to create bargain request: %w", err)
	}

	res.FromModel(bargain)

	s.invalidateListCaches(ctx)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBargainsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBargain, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bargain requests")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bargain requests")

		return res, fmt.Errorf("failed to count bargain requests: %w", err)
	}

	bargains, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bargain requests")

		return res, fmt.Errorf("failed to get bargain requests: %w", err)
	}

	res.FromModels(bargains, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bargain requests to cache")
		}
	}()

	return res, nil
}

// GetAllForOwner lists the bargain requests targeting the agency registered
// for the caller. The agency filter always comes from the caller's own
// agency, never from the request.
func (s *serviceImpl) GetAllForOwner(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBargainsResponse, err error) {
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

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBargain, req, filter)

	err = s.cache.Get(ctx, cacheKey, &total)
	if err == nil {
		return total, nil
	}

	total, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bargain requests")

		return total, fmt.Errorf("failed to count bargain requests: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bargain request count to cache")
		}
	}()

	return total, nil
}

// Get returns a bargain request to its submitter or to the owner of the
// targeted agency.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BargainResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	bargain, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get bargain request")

		return res, fmt.Errorf("failed to get bargain request: %w", err)
	}

	if bargain.ID == constant.Empty {
		return res, failure.NotFound("bargain request not found") //nolint:wrapcheck
	}

	if shared.CallerID(ctx) != bargain.CustomerID {
		if err = s.authorizeAgencyOwner(ctx, bargain.AgencyID); err != nil {
			return res, err
		}
	}

	res.FromModel(bargain)

	return res, nil
}

// UpdateStatus is agency initiated; ownership is checked through the agency
// record rather than a field on the request itself. Only a pending request
// can move, and only into waiting_list or rejected.
func (s *serviceImpl) UpdateStatus(ctx context.Context, req dto.UpdateBargainStatusRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	bargain, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bargain request")

		return fmt.Errorf("failed to get bargain request: %w", err)
	}

	if bargain.ID == constant.Empty {
		return failure.NotFound("bargain request not found") //nolint:wrapcheck
	}

	if err = s.authorizeAgencyOwner(ctx, bargain.AgencyID); err != nil {
		return err
	}

	if bargain.Status != model.StatusPending {
		return failure.BadRequestFromString("only a pending bargain request can change status") //nolint:wrapcheck
	}

	user := shared.CallerID(ctx)

	updatedFields := shared.TransformFields(struct{}{}, user)
	updatedFields[model.FieldStatus] = req.Status

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update bargain request status")

		return fmt.Errorf("failed to update bargain request status: %w", err)
	}

	s.invalidateListCaches(ctx)

	return nil
}

// Delete is the customer's cancellation path, allowed only while the request
// is still pending.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	bargain, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bargain request")

		return fmt.Errorf("failed to get bargain request: %w", err)
	}

	if bargain.ID == constant.Empty {
		return failure.NotFound("bargain request not found") //nolint:wrapcheck
	}

	if err = shared.AuthorizeOwner(ctx, bargain.CustomerID); err != nil {
		return err
	}

	if bargain.Status != model.StatusPending {
		return failure.BadRequestFromString("only a pending bargain request can be deleted") //nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete bargain request")

		return fmt.Errorf("failed to delete bargain request: %w", err)
	}

	s.invalidateListCaches(ctx)

	return nil
}

func (s *serviceImpl) authorizeAgencyOwner(ctx context.Context, agencyID string) error {
	agency, err := s.agency.Get(ctx, agencyID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return shared.AuthorizeOwner(ctx, agency.OwnerID)
}

func (s *serviceImpl) invalidateListCaches(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllBargain)
		shared.InvalidateCaches(c, s.cache, cacheCountBargain)
	}()
}
