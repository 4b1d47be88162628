package service_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"regexp"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tripmarket/config"
	"tripmarket/infras/otel/mocks"
	s3Mocks "tripmarket/infras/s3/mocks"
	agencyMocks "tripmarket/internal/domains/agency/mocks"
	agencyModel "tripmarket/internal/domains/agency/model"
	tripMocks "tripmarket/internal/domains/trip/mocks"
	"tripmarket/internal/domains/trip/model"
	"tripmarket/internal/domains/trip/model/dto"
	"tripmarket/internal/domains/trip/service"
	cacheMocks "tripmarket/shared/cache/mocks"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
)

var codePattern = regexp.MustCompile(`^[0-9]{4}$`)

type tripServiceMocks struct {
	repo       *tripMocks.MockTrip
	imageRepo  *tripMocks.MockTripImage
	agencyRepo *agencyMocks.MockAgency
	cache      *cacheMocks.MockRedisCache
	s3         *s3Mocks.MockS3
}

func newTripService(t *testing.T, cfg *config.Config) (service.Trip, tripServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := tripServiceMocks{
		repo:       tripMocks.NewMockTrip(ctrl),
		imageRepo:  tripMocks.NewMockTripImage(ctrl),
		agencyRepo: agencyMocks.NewMockAgency(ctrl),
		cache:      cacheMocks.NewMockRedisCache(ctrl),
		s3:         s3Mocks.NewMockS3(ctrl),
	}

	if cfg == nil {
		cfg = &config.Config{}
		cfg.Cache.TTL = 3600
	}

	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(m.repo, m.imageRepo, m.agencyRepo, cfg, m.cache, mocks.NewOtel(), m.s3)

	return svc, m
}

func callerContext(userID string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, userID)
}

func ownedAgency(owner string) agencyModel.Agency {
	return agencyModel.Agency{
		ID:      "11111111-1111-4111-8111-111111111111",
		OwnerID: owner,
		Name:    "Wanderlust Tours",
		Status:  agencyModel.StatusActive,
	}
}

func createRequest() dto.CreateTripRequest {
	return dto.CreateTripRequest{
		AgencyID:     "11111111-1111-4111-8111-111111111111",
		Name:         "Bali Escape",
		Price:        499.99,
		Destinations: []string{"Bali", "Nusa Penida"},
		MaxCapacity:  10,
	}
}

func makeImageHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, name := range names {
		part, err := writer.CreateFormFile(constant.FormImages, name)
		require.NoError(t, err)

		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(constant.RequestMaxMemory)
	require.NoError(t, err)

	return form.File[constant.FormImages]
}

func TestTripService_Create_AssignsCode(t *testing.T) {
	svc, m := newTripService(t, nil)

	m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)
	m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

	var inserted model.Trip

	m.repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, trip model.Trip) error {
			inserted = trip

			return nil
		})

	res, err := svc.Create(callerContext("auth0|owner-1"), createRequest(), nil)

	assert.NoError(t, err)
	require.NotNil(t, inserted.TripOTP)
	assert.Regexp(t, codePattern, *inserted.TripOTP)
	assert.Equal(t, *inserted.TripOTP, res.ConfirmationCode)
	assert.Equal(t, 0, inserted.CurrentBookings)
	assert.Equal(t, model.StatusActive, inserted.Status)
	assert.Empty(t, res.FailedImages)
}

func TestTripService_Create_ClientCodeCollisionGetsFreshCode(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.App.ConfirmationCode.Min = 1000
	cfg.App.ConfirmationCode.Max = 1999

	svc, m := newTripService(t, cfg)

	req := createRequest()
	req.ConfirmationCode = "4242"

	m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)

	// The supplied candidate is taken; the next generated one is free.
	gomock.InOrder(
		m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil),
		m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil),
	)

	var inserted model.Trip

	m.repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, trip model.Trip) error {
			inserted = trip

			return nil
		})

	_, err := svc.Create(callerContext("auth0|owner-1"), req, nil)

	assert.NoError(t, err)
	require.NotNil(t, inserted.TripOTP)
	assert.NotEqual(t, "4242", *inserted.TripOTP)
	assert.Regexp(t, codePattern, *inserted.TripOTP)
}

func TestTripService_Create_RetriesOnInsertCollision(t *testing.T) {
	svc, m := newTripService(t, nil)

	m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)
	m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil).Times(2)

	gomock.InOrder(
		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(&pq.Error{Code: "23505", Constraint: "trips_trip_otp_key"}),
		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil),
	)

	res, err := svc.Create(callerContext("auth0|owner-1"), createRequest(), nil)

	assert.NoError(t, err)
	assert.Regexp(t, codePattern, res.ConfirmationCode)
}

func TestTripService_Create_ExhaustedCodeSpace(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.App.ConfirmationCode.Min = 10
	cfg.App.ConfirmationCode.Max = 99
	cfg.App.ConfirmationCode.MaxAttempts = 5

	svc, m := newTripService(t, cfg)

	m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)
	m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil).Times(5)

	_, err := svc.Create(callerContext("auth0|owner-1"), createRequest(), nil)

	assert.ErrorIs(t, err, failure.CodeAllocationExhausted)
}

func TestTripService_Create_NonOwnerForbidden(t *testing.T) {
	svc, m := newTripService(t, nil)

	m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)

	_, err := svc.Create(callerContext("auth0|intruder"), createRequest(), nil)

	assert.Error(t, err)
	assert.Equal(t, 403, failure.GetCode(err))
}

func TestTripService_Create_ReportsFailedImages(t *testing.T) {
	svc, m := newTripService(t, nil)

	m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)
	m.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
	m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	headers := makeImageHeaders(t, "beach.jpg", "volcano.jpg")

	gomock.InOrder(
		m.s3.EXPECT().
			UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("https://cdn.example/trip/beach.jpg", "trip/beach.jpg", nil),
		m.s3.EXPECT().
			UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", "", errors.New("storage unavailable")),
	)

	m.imageRepo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, image model.TripImage) error {
			assert.Equal(t, "beach.jpg", image.FileName)
			assert.Equal(t, "https://cdn.example/trip/beach.jpg", image.URL)

			return nil
		})

	res, err := svc.Create(callerContext("auth0|owner-1"), createRequest(), headers)

	assert.NoError(t, err)
	assert.Len(t, res.Images, 1)
	assert.Equal(t, []string{"volcano.jpg"}, res.FailedImages)
}

func TestTripService_Get(t *testing.T) {
	trip := model.Trip{
		ID:          "trip-1",
		AgencyID:    "11111111-1111-4111-8111-111111111111",
		Name:        "Bali Escape",
		MaxCapacity: 10,
		Status:      model.StatusActive,
	}

	t.Run("found with images", func(t *testing.T) {
		svc, m := newTripService(t, nil)

		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(trip, nil)
		m.imageRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.TripImage{{ID: "img-1", TripID: "trip-1", URL: "https://cdn.example/trip/beach.jpg"}}, nil)

		res, err := svc.Get(context.Background(), "trip-1")

		assert.NoError(t, err)
		assert.Equal(t, "trip-1", res.ID)
		assert.Len(t, res.Images, 1)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newTripService(t, nil)

		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Trip{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestTripService_Update(t *testing.T) {
	trip := model.Trip{
		ID:       "trip-1",
		AgencyID: "11111111-1111-4111-8111-111111111111",
		Name:     "Bali Escape",
	}

	t.Run("owner updates trip", func(t *testing.T) {
		svc, m := newTripService(t, nil)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(trip, nil)
		m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		err := svc.Update(callerContext("auth0|owner-1"), dto.UpdateTripRequest{Name: "Bali Deluxe"}, "trip-1")

		assert.NoError(t, err)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		svc, m := newTripService(t, nil)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(trip, nil)
		m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)

		err := svc.Update(callerContext("auth0|intruder"), dto.UpdateTripRequest{Name: "Hijacked"}, "trip-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("trip not found", func(t *testing.T) {
		svc, m := newTripService(t, nil)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Trip{}, nil)

		err := svc.Update(callerContext("auth0|owner-1"), dto.UpdateTripRequest{Name: "Bali Deluxe"}, "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestTripService_Delete(t *testing.T) {
	trip := model.Trip{
		ID:       "trip-1",
		AgencyID: "11111111-1111-4111-8111-111111111111",
		Name:     "Bali Escape",
	}

	t.Run("owner deletes trip and images", func(t *testing.T) {
		svc, m := newTripService(t, nil)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(trip, nil)
		m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)
		m.imageRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
		m.imageRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
		m.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		err := svc.Delete(callerContext("auth0|owner-1"), "trip-1")

		assert.NoError(t, err)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		svc, m := newTripService(t, nil)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(trip, nil)
		m.agencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ownedAgency("auth0|owner-1"), nil)

		err := svc.Delete(callerContext("auth0|intruder"), "trip-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})
}

// codeHoldingTripRepo enforces code uniqueness the way the partial unique
// index does: the existence pre-check sees nothing, and only the insert
// itself detects a taken code.
type codeHoldingTripRepo struct {
	mu    sync.Mutex
	codes map[string]struct{}
}

func (r *codeHoldingTripRepo) Insert(_ context.Context, trip model.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if trip.TripOTP == nil {
		return nil
	}

	if _, held := r.codes[*trip.TripOTP]; held {
		return &pq.Error{Code: "23505", Constraint: "trips_trip_otp_key"}
	}

	r.codes[*trip.TripOTP] = struct{}{}

	return nil
}

func (r *codeHoldingTripRepo) Get(context.Context, gDto.FilterGroup, ...string) (model.Trip, error) {
	return model.Trip{}, nil
}

func (r *codeHoldingTripRepo) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]model.Trip, error) {
	return nil, nil
}

func (r *codeHoldingTripRepo) Exist(context.Context, gDto.FilterGroup) (bool, error) {
	return false, nil
}

func (r *codeHoldingTripRepo) Count(context.Context, gDto.FilterGroup) (int, error) { return 0, nil }

func (r *codeHoldingTripRepo) Update(context.Context, map[string]any, gDto.FilterGroup) error {
	return nil
}

func (r *codeHoldingTripRepo) Delete(context.Context, gDto.FilterGroup) error { return nil }

func (r *codeHoldingTripRepo) ReserveSlot(context.Context, string) (bool, error) { return true, nil }

func (r *codeHoldingTripRepo) ReleaseSlot(context.Context, string) error { return nil }

type ownedAgencyRepo struct {
	owner string
}

func (r *ownedAgencyRepo) Insert(context.Context, agencyModel.Agency) error { return nil }

func (r *ownedAgencyRepo) Get(context.Context, gDto.FilterGroup, ...string) (agencyModel.Agency, error) {
	return ownedAgency(r.owner), nil
}

func (r *ownedAgencyRepo) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]agencyModel.Agency, error) {
	return nil, nil
}

func (r *ownedAgencyRepo) Exist(context.Context, gDto.FilterGroup) (bool, error) { return false, nil }

func (r *ownedAgencyRepo) Count(context.Context, gDto.FilterGroup) (int, error) { return 0, nil }

func (r *ownedAgencyRepo) Update(context.Context, map[string]any, gDto.FilterGroup) error {
	return nil
}

func (r *ownedAgencyRepo) Delete(context.Context, gDto.FilterGroup) error { return nil }

type noopCache struct{}

func (noopCache) Save(context.Context, string, any, int) error { return nil }
func (noopCache) Get(context.Context, string, any) error       { return errors.New("cache miss") }
func (noopCache) Delete(context.Context, string) error         { return nil }
func (noopCache) Clear(context.Context, string) error          { return nil }

func TestTripService_Create_ConcurrentCodesStayUnique(t *testing.T) {
	const attempts = 30

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.App.ConfirmationCode.Min = 10
	cfg.App.ConfirmationCode.Max = 99
	cfg.App.ConfirmationCode.MaxAttempts = 50

	repo := &codeHoldingTripRepo{codes: map[string]struct{}{}}

	svc := service.New(repo, nil, &ownedAgencyRepo{owner: "auth0|owner-1"}, cfg, noopCache{}, mocks.NewOtel(), nil)

	var wg sync.WaitGroup

	results := make([]string, attempts)
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			res, err := svc.Create(callerContext("auth0|owner-1"), createRequest(), nil)

			results[n] = res.ConfirmationCode
			errs[n] = err
		}(i)
	}

	wg.Wait()

	seen := map[string]struct{}{}

	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		assert.Regexp(t, `^[0-9]{2}$`, results[i])

		_, dup := seen[results[i]]
		assert.False(t, dup, "code %q handed out twice", results[i])

		seen[results[i]] = struct{}{}
	}

	assert.Len(t, repo.codes, attempts)
}
