package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tripmarket/config"
	"tripmarket/infras/otel/mocks"
	agencyDto "tripmarket/internal/domains/agency/model/dto"
	agencyMocks "tripmarket/internal/domains/agency/service/mocks"
	bookingMocks "tripmarket/internal/domains/booking/mocks"
	"tripmarket/internal/domains/booking/model"
	"tripmarket/internal/domains/booking/model/dto"
	"tripmarket/internal/domains/booking/service"
	tripMocks "tripmarket/internal/domains/trip/mocks"
	tripModel "tripmarket/internal/domains/trip/model"
	cacheMocks "tripmarket/shared/cache/mocks"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
)

type bookingServiceMocks struct {
	repo     *bookingMocks.MockBooking
	tripRepo *tripMocks.MockTrip
	agency   *agencyMocks.MockAgency
	cache    *cacheMocks.MockRedisCache
}

func newBookingService(t *testing.T) (service.Booking, bookingServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := bookingServiceMocks{
		repo:     bookingMocks.NewMockBooking(ctrl),
		tripRepo: tripMocks.NewMockTrip(ctrl),
		agency:   agencyMocks.NewMockAgency(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
	}

	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(m.repo, m.tripRepo, m.agency, cfg, m.cache, mocks.NewOtel(), nil)

	return svc, m
}

func callerContext(userID string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, userID)
}

func activeTrip() tripModel.Trip {
	code := "4242"

	return tripModel.Trip{
		ID:              "22222222-2222-4222-8222-222222222222",
		AgencyID:        "11111111-1111-4111-8111-111111111111",
		Name:            "Bali Escape",
		Price:           499.99,
		MaxCapacity:     10,
		CurrentBookings: 3,
		Status:          tripModel.StatusActive,
		TripOTP:         &code,
	}
}

func createRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		TripID:        "22222222-2222-4222-8222-222222222222",
		CustomerID:    "auth0|customer-1",
		CustomerName:  "Ayu Lestari",
		CustomerEmail: "ayu@example.com",
	}
}

func TestBookingService_Create(t *testing.T) {
	t.Run("copies price and confirmation code from trip", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.tripRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeTrip(), nil)
		m.tripRepo.EXPECT().ReserveSlot(gomock.Any(), "22222222-2222-4222-8222-222222222222").Return(true, nil)
		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, "4242", booking.TripOTP)
				assert.Equal(t, 499.99, booking.TotalAmount)
				assert.Equal(t, model.StatusConfirmed, booking.Status)
				assert.Equal(t, "11111111-1111-4111-8111-111111111111", booking.AgencyID)

				return nil
			})

		res, err := svc.Create(callerContext("auth0|customer-1"), createRequest())

		assert.NoError(t, err)
		assert.Equal(t, "4242", res.ConfirmationCode)
		assert.Equal(t, model.StatusConfirmed, res.Status)
	})

	t.Run("caller must match the customer and nothing is written otherwise", func(t *testing.T) {
		svc, _ := newBookingService(t)

		_, err := svc.Create(callerContext("auth0|someone-else"), createRequest())

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("trip not found", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.tripRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tripModel.Trip{}, nil)

		_, err := svc.Create(callerContext("auth0|customer-1"), createRequest())

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("full trip is rejected without writing a booking", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.tripRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeTrip(), nil)
		m.tripRepo.EXPECT().ReserveSlot(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := svc.Create(callerContext("auth0|customer-1"), createRequest())

		assert.ErrorIs(t, err, failure.CapacityExceeded)
	})

	t.Run("reserved slot is released when persistence fails", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.tripRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeTrip(), nil)
		m.tripRepo.EXPECT().ReserveSlot(gomock.Any(), gomock.Any()).Return(true, nil)
		m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
		m.tripRepo.EXPECT().ReleaseSlot(gomock.Any(), "22222222-2222-4222-8222-222222222222").Return(nil)

		_, err := svc.Create(callerContext("auth0|customer-1"), createRequest())

		assert.Error(t, err)
	})
}

// slotCountingTripRepo reserves capacity with an atomic counter, mirroring the
// conditional-update semantics of the real repository.
type slotCountingTripRepo struct {
	trip      tripModel.Trip
	remaining atomic.Int64
}

func (r *slotCountingTripRepo) Insert(context.Context, tripModel.Trip) error { return nil }

func (r *slotCountingTripRepo) Get(context.Context, gDto.FilterGroup, ...string) (tripModel.Trip, error) {
	return r.trip, nil
}

func (r *slotCountingTripRepo) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]tripModel.Trip, error) {
	return nil, nil
}

func (r *slotCountingTripRepo) Exist(context.Context, gDto.FilterGroup) (bool, error) {
	return false, nil
}

func (r *slotCountingTripRepo) Count(context.Context, gDto.FilterGroup) (int, error) {
	return 0, nil
}

func (r *slotCountingTripRepo) Update(context.Context, map[string]any, gDto.FilterGroup) error {
	return nil
}

func (r *slotCountingTripRepo) Delete(context.Context, gDto.FilterGroup) error { return nil }

func (r *slotCountingTripRepo) ReserveSlot(context.Context, string) (bool, error) {
	for {
		current := r.remaining.Load()
		if current <= 0 {
			return false, nil
		}

		if r.remaining.CompareAndSwap(current, current-1) {
			return true, nil
		}
	}
}

func (r *slotCountingTripRepo) ReleaseSlot(context.Context, string) error {
	r.remaining.Add(1)

	return nil
}

// noopBookingRepo accepts every insert; only the capacity gate decides
// admission in the concurrency test.
type noopBookingRepo struct {
	inserts atomic.Int64
}

func (r *noopBookingRepo) Insert(context.Context, model.Booking) error {
	r.inserts.Add(1)

	return nil
}

func (r *noopBookingRepo) Get(context.Context, gDto.FilterGroup, ...string) (model.Booking, error) {
	return model.Booking{}, nil
}

func (r *noopBookingRepo) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]model.Booking, error) {
	return nil, nil
}

func (r *noopBookingRepo) Exist(context.Context, gDto.FilterGroup) (bool, error) {
	return false, nil
}

func (r *noopBookingRepo) Count(context.Context, gDto.FilterGroup) (int, error) { return 0, nil }

func (r *noopBookingRepo) Update(context.Context, map[string]any, gDto.FilterGroup) error {
	return nil
}

func (r *noopBookingRepo) Delete(context.Context, gDto.FilterGroup) error { return nil }

type noopCache struct{}

func (noopCache) Save(context.Context, string, any, int) error { return nil }
func (noopCache) Get(context.Context, string, any) error       { return errors.New("cache miss") }
func (noopCache) Delete(context.Context, string) error         { return nil }
func (noopCache) Clear(context.Context, string) error          { return nil }

func TestBookingService_Create_ConcurrentCapacityOne(t *testing.T) {
	const attempts = 8

	trip := activeTrip()
	trip.MaxCapacity = 1
	trip.CurrentBookings = 0

	tripRepo := &slotCountingTripRepo{trip: trip}
	tripRepo.remaining.Store(1)

	bookingRepo := &noopBookingRepo{}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(bookingRepo, tripRepo, nil, cfg, noopCache{}, mocks.NewOtel(), nil)

	var (
		wg        sync.WaitGroup
		confirmed atomic.Int64
		rejected  atomic.Int64
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			req := createRequest()
			req.CustomerID = "auth0|customer-" + string(rune('a'+n))

			_, err := svc.Create(callerContext(req.CustomerID), req)

			switch {
			case err == nil:
				confirmed.Add(1)
			case errors.Is(err, failure.CapacityExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(1), confirmed.Load())
	assert.Equal(t, int64(attempts-1), rejected.Load())
	assert.Equal(t, int64(1), bookingRepo.inserts.Load())
}

func TestBookingService_GetAllForOwner(t *testing.T) {
	agency := agencyDto.AgencyResponse{
		ID:      "11111111-1111-4111-8111-111111111111",
		OwnerID: "auth0|owner-1",
	}

	t.Run("filter is pinned to the caller's agency", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).AnyTimes()
		m.agency.EXPECT().GetByOwner(gomock.Any(), "auth0|owner-1").Return(agency, nil)
		m.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				assert.Contains(t, filter.Filters, gDto.Filter{
					Field:    model.FieldAgencyID,
					Operator: gDto.FilterOperatorEq,
					Value:    agency.ID,
					Table:    model.TableName,
				})

				return []model.Booking{{ID: "booking-1", AgencyID: agency.ID}}, nil
			})

		res, err := svc.GetAllForOwner(callerContext("auth0|owner-1"), gDto.QueryParams{Limit: 10}, gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorAnd,
			Filters:  []any{},
		})

		assert.NoError(t, err)
		assert.Len(t, res.Bookings, 1)
	})

	t.Run("requested agency filter cannot widen the scope", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).AnyTimes()
		m.agency.EXPECT().GetByOwner(gomock.Any(), "auth0|owner-1").Return(agency, nil)
		m.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)
		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				assert.Contains(t, filter.Filters, gDto.Filter{
					Field:    model.FieldAgencyID,
					Operator: gDto.FilterOperatorEq,
					Value:    agency.ID,
					Table:    model.TableName,
				})

				return nil, nil
			})

		_, err := svc.GetAllForOwner(callerContext("auth0|owner-1"), gDto.QueryParams{Limit: 10}, gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorAnd,
			Filters: []any{gDto.Filter{
				Field:    model.FieldAgencyID,
				Operator: gDto.FilterOperatorEq,
				Value:    "99999999-9999-4999-8999-999999999999",
				Table:    model.TableName,
			}},
		})

		assert.NoError(t, err)
	})

	t.Run("caller without an agency gets nothing", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.agency.EXPECT().GetByOwner(gomock.Any(), "auth0|customer-1").Return(agencyDto.AgencyResponse{}, failure.NotFound("agency not found"))

		_, err := svc.GetAllForOwner(callerContext("auth0|customer-1"), gDto.QueryParams{}, gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd})

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		svc, _ := newBookingService(t)

		_, err := svc.GetAllForOwner(context.Background(), gDto.QueryParams{}, gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd})

		assert.Error(t, err)
		assert.Equal(t, 401, failure.GetCode(err))
	})
}

func TestBookingService_UpdateStatus(t *testing.T) {
	booking := model.Booking{
		ID:         "booking-1",
		TripID:     "22222222-2222-4222-8222-222222222222",
		AgencyID:   "11111111-1111-4111-8111-111111111111",
		CustomerID: "auth0|customer-1",
		Status:     model.StatusConfirmed,
	}

	agency := agencyDto.AgencyResponse{
		ID:      "11111111-1111-4111-8111-111111111111",
		OwnerID: "auth0|owner-1",
	}

	t.Run("owning agency moves booking to pending", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.agency.EXPECT().Get(gomock.Any(), gomock.Any()).Return(agency, nil)
		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, model.StatusPending, fields[model.FieldStatus])

				return nil
			})

		err := svc.UpdateStatus(callerContext("auth0|owner-1"), dto.UpdateBookingStatusRequest{Status: model.StatusPending}, "booking-1")

		assert.NoError(t, err)
	})

	t.Run("cancelling releases the capacity slot", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.agency.EXPECT().Get(gomock.Any(), gomock.Any()).Return(agency, nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.tripRepo.EXPECT().ReleaseSlot(gomock.Any(), booking.TripID).Return(nil)

		err := svc.UpdateStatus(callerContext("auth0|owner-1"), dto.UpdateBookingStatusRequest{Status: model.StatusCancelled}, "booking-1")

		assert.NoError(t, err)
	})

	t.Run("cancelled booking is immutable", func(t *testing.T) {
		svc, m := newBookingService(t)

		cancelled := booking
		cancelled.Status = model.StatusCancelled

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cancelled, nil)
		m.agency.EXPECT().Get(gomock.Any(), gomock.Any()).Return(agency, nil)

		err := svc.UpdateStatus(callerContext("auth0|owner-1"), dto.UpdateBookingStatusRequest{Status: model.StatusConfirmed}, "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("other agency owner is forbidden", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.agency.EXPECT().Get(gomock.Any(), gomock.Any()).Return(agency, nil)

		err := svc.UpdateStatus(callerContext("auth0|other-owner"), dto.UpdateBookingStatusRequest{Status: model.StatusPending}, "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})
}

func TestBookingService_Get(t *testing.T) {
	booking := model.Booking{
		ID:         "booking-1",
		AgencyID:   "11111111-1111-4111-8111-111111111111",
		CustomerID: "auth0|customer-1",
		TripOTP:    "4242",
		Status:     model.StatusConfirmed,
	}

	t.Run("customer reads own booking", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		res, err := svc.Get(callerContext("auth0|customer-1"), "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, "4242", res.ConfirmationCode)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.agency.EXPECT().Get(gomock.Any(), gomock.Any()).Return(agencyDto.AgencyResponse{
			ID:      "11111111-1111-4111-8111-111111111111",
			OwnerID: "auth0|owner-1",
		}, nil)

		_, err := svc.Get(callerContext("auth0|stranger"), "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})
}
