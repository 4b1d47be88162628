package service

import (
	"context"
	"fmt"
	"tripmarket/config"
	"tripmarket/infras/otel"
	"tripmarket/internal/domains/agency/model"
	"tripmarket/internal/domains/agency/model/dto"
	"tripmarket/internal/domains/agency/repository"
	"tripmarket/shared"
	"tripmarket/shared/cache"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
	gRepo "tripmarket/shared/repository"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetAgency    = "agency:get"
	cacheGetAllAgency = "agency:gets"
	cacheCountAgency  = "agency:count"

	// cacheOwnerAgency caches the "which agency does this subject own"
	// lookup. Entries expire on the ownership TTL and are invalidated
	// when an agency is created.
	cacheOwnerAgency = "agency:owner"
)

type Agency interface {
	Create(ctx context.Context, req dto.CreateAgencyRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetAgenciesResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.AgencyResponse, error)
	GetByOwner(ctx context.Context, owner string) (dto.AgencyResponse, error)
	Update(ctx context.Context, req dto.UpdateAgencyRequest, id string) error
}

type serviceImpl struct {
	repo  repository.Agency
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Agency, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Agency {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateAgencyRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner := shared.CallerID(ctx)
	if owner == "" {
		return failure.Unauthorized("unauthorized") //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, req.ToModel(owner)); err != nil {
		if gRepo.IsUniqueViolation(err) {
			column := gRepo.UniqueViolationColumn(err, model.TableName)
			if column == model.FieldOwnerID {
				return failure.BadRequestFromString("an agency is already registered for this account") //nolint:wrapcheck
			}

			if column != "" {
				return failure.Duplicate(column) //nolint:wrapcheck
			}
		}

		log.Error().Err(err).Msg("failed to create agency")

		return fmt.Errorf("failed to create agency: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheOwnerAgency, owner)); err != nil {
			log.Error().Err(err).Msg("failed to invalidate owner agency cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllAgency)
		shared.InvalidateCaches(c, s.cache, cacheCountAgency)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetAgenciesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllAgency, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for agencies")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count agencies")

		return res, fmt.Errorf("failed to count agencies: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get agencies")

		return res, fmt.Errorf("failed to get agencies: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save agencies to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountAgency, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count agencies")

		return res, fmt.Errorf("failed to count agencies: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save agency count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.AgencyResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetAgency, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	agency, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get agency")

		return res, fmt.Errorf("failed to get agency: %w", err)
	}

	if agency.ID == constant.Empty {
		return res, failure.NotFound("agency not found") //nolint:wrapcheck
	}

	res.FromModel(agency)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save agency to cache")
		}
	}()

	return res, nil
}

// GetByOwner resolves the agency registered for an identity-provider subject,
// through a short-lived cache.
func (s *serviceImpl) GetByOwner(ctx context.Context, owner string) (res dto.AgencyResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetByOwner")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheOwnerAgency, owner)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	agency, err := s.repo.Get(ctx, shared.FilterByID(owner, model.FieldOwnerID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get agency by owner")

		return res, fmt.Errorf("failed to get agency by owner: %w", err)
	}

	if agency.ID == constant.Empty {
		return res, failure.NotFound("agency not found") //nolint:wrapcheck
	}

	res.FromModel(agency)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.OwnershipTTL); err != nil {
			log.Error().Err(err).Msg("failed to save owner agency to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateAgencyRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateAgencyRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	agency, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get agency")

		return fmt.Errorf("failed to get agency: %w", err)
	}

	if agency.ID == constant.Empty {
		return failure.NotFound("agency not found") //nolint:wrapcheck
	}

	if err = shared.AuthorizeOwner(ctx, agency.OwnerID); err != nil {
		return err
	}

	user := shared.CallerID(ctx)

	updatedFields := shared.TransformFields(req, user)
	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		if gRepo.IsUniqueViolation(err) {
			if column := gRepo.UniqueViolationColumn(err, model.TableName); column != "" {
				return failure.Duplicate(column) //nolint:wrapcheck
			}
		}

		log.Error().Err(err).Msg("failed to update agency")

		return fmt.Errorf("failed to update agency: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetAgency, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete agency from cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheOwnerAgency, agency.OwnerID)); err != nil {
			log.Error().Err(err).Msg("failed to invalidate owner agency cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllAgency)
		shared.InvalidateCaches(c, s.cache, cacheCountAgency)
	}()

	return nil
}
