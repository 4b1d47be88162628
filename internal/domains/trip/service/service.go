package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"mime/multipart"
	"strconv"
	"tripmarket/config"
	"tripmarket/infras/otel"
	"tripmarket/infras/s3"
	agencyModel "tripmarket/internal/domains/agency/model"
	agencyRepository "tripmarket/internal/domains/agency/repository"
	"tripmarket/internal/domains/trip/model"
	"tripmarket/internal/domains/trip/model/dto"
	"tripmarket/internal/domains/trip/repository"
	"tripmarket/shared"
	"tripmarket/shared/cache"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
	gModel "tripmarket/shared/model"
	gRepo "tripmarket/shared/repository"
	"tripmarket/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetTrip    = "trip:get"
	cacheGetAllTrip = "trip:gets"
	cacheCountTrip  = "trip:count"
)

type Trip interface {
	Create(ctx context.Context, req dto.CreateTripRequest, images []*multipart.FileHeader) (dto.CreateTripResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetTripsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.TripResponse, error)
	Update(ctx context.Context, req dto.UpdateTripRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo       repository.Trip
	imageRepo  repository.TripImage
	agencyRepo agencyRepository.Agency
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
	s3         s3.S3
}

func New(
	repo repository.Trip,
	imageRepo repository.TripImage,
	agencyRepo agencyRepository.Agency,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
	s3 s3.S3,
) Trip {
	return &serviceImpl{
		repo:       repo,
		imageRepo:  imageRepo,
		agencyRepo: agencyRepo,
		cfg:        cfg,
		cache:      cache,
		otel:       otel,
		s3:         s3,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateTripRequest, images []*multipart.FileHeader) (res dto.CreateTripResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.authorizeAgencyOwner(ctx, req.AgencyID); err != nil {
		return res, err
	}

	user := shared.CallerID(ctx)

	trip, err := s.insertWithUniqueCode(ctx, req, user)
	if err != nil {
		return res, err
	}

	imageModels, failedImages := s.storeImages(ctx, trip.ID, user, images)

	res.FromModel(trip, imageModels)
	res.FailedImages = failedImages

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllTrip)
		shared.InvalidateCaches(c, s.cache, cacheCountTrip)
	}()

	return res, nil
}

// insertWithUniqueCode allocates the confirmation code and persists the trip.
// The existence pre-check only avoids most collisions; the unique index on
// the code column is the actual uniqueness guarantee, so a violation at
// insert time regenerates the code and retries.
func (s *serviceImpl) insertWithUniqueCode(ctx context.Context, req dto.CreateTripRequest, user string) (trip model.Trip, err error) {
	minCode, maxCode, maxAttempts := s.codeSpace()

	candidate := req.ConfirmationCode

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if candidate == constant.Empty {
			candidate = strconv.Itoa(minCode + rand.IntN(maxCode-minCode+1))
		}

		taken, err := s.repo.Exist(ctx, shared.FilterByID(candidate, model.FieldTripOTP, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to check confirmation code existence")

			return trip, fmt.Errorf("failed to check confirmation code: %w", err)
		}

		if taken {
			candidate = constant.Empty

			continue
		}

		trip = req.ToModel(user, candidate)

		err = s.repo.Insert(ctx, trip)
		if err == nil {
			return trip, nil
		}

		if gRepo.IsUniqueViolation(err) && gRepo.UniqueViolationColumn(err, model.TableName) == model.FieldTripOTP {
			candidate = constant.Empty

			continue
		}

		log.Error().Err(err).Msg("failed to create trip")

		return trip, fmt.Errorf("failed to create trip: %w", err)
	}

	log.Error().Int("attempts", maxAttempts).Msg("confirmation code allocation exhausted")

	return trip, failure.CodeAllocationExhausted
}

// storeImages uploads each image and records it against the trip. A failed
// image never aborts the creation; its filename is reported back instead.
func (s *serviceImpl) storeImages(ctx context.Context, tripID, user string, images []*multipart.FileHeader) ([]model.TripImage, []string) {
	stored := make([]model.TripImage, 0, len(images))
	failed := make([]string, 0)

	bucketName := s.cfg.External.S3.BucketName

	for _, header := range images {
		file, err := header.Open()
		if err != nil {
			log.Error().Err(err).Str("fileName", header.Filename).Msg("failed to open image payload")
			failed = append(failed, header.Filename)

			continue
		}

		url, objectKey, err := s.s3.UploadFile(ctx, bucketName, model.EntityName, file, header, uuid.NewString()+"_"+header.Filename)

		file.Close()

		if err != nil {
			log.Error().Err(err).Str("fileName", header.Filename).Msg("failed to upload image to S3")
			failed = append(failed, header.Filename)

			continue
		}

		image := model.TripImage{
			ID:        uuid.NewString(),
			TripID:    tripID,
			URL:       url,
			StorageID: objectKey,
			FileName:  header.Filename,
			Metadata: gModel.Metadata{
				CreatedAt:  timezone.Now(),
				ModifiedAt: timezone.Now(),
				CreatedBy:  user,
				ModifiedBy: user,
			},
		}

		if err = s.imageRepo.Insert(ctx, image); err != nil {
			log.Error().Err(err).Str("fileName", header.Filename).Msg("failed to record trip image")
			failed = append(failed, header.Filename)

			go func() {
				c := context.WithoutCancel(ctx)

				if err := s.s3.DeleteFile(c, bucketName, objectKey); err != nil {
					log.Error().Err(err).Str("objectKey", objectKey).Msg("failed to remove orphaned image from S3")
				}
			}()

			continue
		}

		stored = append(stored, image)
	}

	return stored, failed
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetTripsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllTrip, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for trips")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count trips")

		return res, fmt.Errorf("failed to count trips: %w", err)
	}

	trips, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get trips")

		return res, fmt.Errorf("failed to get trips: %w", err)
	}

	imagesByTrip, err := s.imagesByTrip(ctx, trips)
	if err != nil {
		return res, err
	}

	res.FromModels(trips, imagesByTrip, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save trips to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (total int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountTrip, req, filter)

	err = s.cache.Get(ctx, cacheKey, &total)
	if err == nil {
		return total, nil
	}

	total, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count trips")

		return total, fmt.Errorf("failed to count trips: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save trip count to cache")
		}
	}()

	return total, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TripResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetTrip, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	trip, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get trip")

		return res, fmt.Errorf("failed to get trip: %w", err)
	}

	if trip.ID == constant.Empty {
		return res, failure.NotFound("trip not found") //nolint:wrapcheck
	}

	images, err := s.imageRepo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByID(id, model.ImageFieldTripID, model.ImageTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get trip images")

		return res, fmt.Errorf("failed to get trip images: %w", err)
	}

	res.FromModel(trip, images)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save trip to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateTripRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	trip, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get trip")

		return fmt.Errorf("failed to get trip: %w", err)
	}

	if trip.ID == constant.Empty {
		return failure.NotFound("trip not found") //nolint:wrapcheck
	}

	if err = s.authorizeAgencyOwner(ctx, trip.AgencyID); err != nil {
		return err
	}

	user := shared.CallerID(ctx)

	updatedFields := shared.TransformFields(req, user)
	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update trip")

		return fmt.Errorf("failed to update trip: %w", err)
	}

	s.invalidateTripCaches(ctx, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	trip, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get trip")

		return fmt.Errorf("failed to get trip: %w", err)
	}

	if trip.ID == constant.Empty {
		return failure.NotFound("trip not found") //nolint:wrapcheck
	}

	if err = s.authorizeAgencyOwner(ctx, trip.AgencyID); err != nil {
		return err
	}

	imageFilter := shared.FilterByID(id, model.ImageFieldTripID, model.ImageTableName)

	images, err := s.imageRepo.GetAll(ctx, gDto.QueryParams{}, imageFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get trip images for deletion")

		return fmt.Errorf("failed to get trip images: %w", err)
	}

	if err = s.imageRepo.Delete(ctx, imageFilter); err != nil {
		log.Error().Err(err).Msg("failed to delete trip images")

		return fmt.Errorf("failed to delete trip images: %w", err)
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete trip")

		return fmt.Errorf("failed to delete trip: %w", err)
	}

	s.invalidateTripCaches(ctx, id)

	// Storage cleanup is best effort; a leftover object never blocks deletion.
	go func() {
		c := context.WithoutCancel(ctx)
		bucketName := s.cfg.External.S3.BucketName

		for _, image := range images {
			if err := s.s3.DeleteFile(c, bucketName, image.StorageID); err != nil {
				log.Error().Err(err).Str("objectKey", image.StorageID).Msg("failed to delete image from S3")
			}
		}
	}()

	return nil
}

func (s *serviceImpl) authorizeAgencyOwner(ctx context.Context, agencyID string) error {
	agency, err := s.agencyRepo.Get(ctx, shared.FilterByID(agencyID, agencyModel.FieldID, agencyModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get agency")

		return fmt.Errorf("failed to get agency: %w", err)
	}

	if agency.ID == constant.Empty {
		return failure.NotFound("agency not found") //nolint:wrapcheck
	}

	return shared.AuthorizeOwner(ctx, agency.OwnerID)
}

func (s *serviceImpl) imagesByTrip(ctx context.Context, trips []model.Trip) (map[string][]model.TripImage, error) {
	result := make(map[string][]model.TripImage, len(trips))

	if len(trips) == 0 {
		return result, nil
	}

	ids := make([]string, len(trips))
	for i, trip := range trips {
		ids[i] = trip.ID
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.ImageFieldTripID,
				Value:    ids,
				Operator: gDto.FilterOperatorIn,
				Table:    model.ImageTableName,
			},
		},
	}

	images, err := s.imageRepo.GetAll(ctx, gDto.QueryParams{}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get trip images")

		return result, fmt.Errorf("failed to get trip images: %w", err)
	}

	for _, image := range images {
		result[image.TripID] = append(result[image.TripID], image)
	}

	return result, nil
}

func (s *serviceImpl) invalidateTripCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetTrip, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete trip from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllTrip)
		shared.InvalidateCaches(c, s.cache, cacheCountTrip)
	}()
}

func (s *serviceImpl) codeSpace() (minCode, maxCode, maxAttempts int) {
	minCode = s.cfg.App.ConfirmationCode.Min
	maxCode = s.cfg.App.ConfirmationCode.Max
	maxAttempts = s.cfg.App.ConfirmationCode.MaxAttempts

	if minCode <= 0 || maxCode <= minCode {
		minCode = constant.DefaultCodeMin
		maxCode = constant.DefaultCodeMax
	}

	if maxAttempts <= 0 {
		maxAttempts = constant.DefaultCodeMaxAttempts
	}

	return minCode, maxCode, maxAttempts
}
