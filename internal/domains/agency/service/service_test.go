package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tripmarket/config"
	"tripmarket/infras/otel/mocks"
	agencyMocks "tripmarket/internal/domains/agency/mocks"
	"tripmarket/internal/domains/agency/model"
	"tripmarket/internal/domains/agency/model/dto"
	"tripmarket/internal/domains/agency/service"
	cacheMocks "tripmarket/shared/cache/mocks"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	"tripmarket/shared/failure"
)

func newAgencyService(t *testing.T) (service.Agency, *agencyMocks.MockAgency, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := agencyMocks.NewMockAgency(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Cache.OwnershipTTL = 300

	svc := service.New(mockRepo, cfg, mockCache, mocks.NewOtel())

	return svc, mockRepo, mockCache
}

func allowAsyncCacheWrites(mockCache *cacheMocks.MockRedisCache) {
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func callerContext(userID string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, userID)
}

func TestAgencyService_Create(t *testing.T) {
	tests := []struct {
		name      string
		caller    string
		req       dto.CreateAgencyRequest
		setupMock func(repo *agencyMocks.MockAgency)
		wantErr   bool
		wantCode  int
	}{
		{
			name:   "successful creation",
			caller: "auth0|owner-1",
			req: dto.CreateAgencyRequest{
				Name:  "Wanderlust Tours",
				Email: "hello@wanderlust.example",
			},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, m model.Agency) error {
						assert.Equal(t, "auth0|owner-1", m.OwnerID)
						assert.Equal(t, model.StatusActive, m.Status)
						assert.NotEmpty(t, m.ID)

						return nil
					})
			},
			wantErr: false,
		},
		{
			name:   "unauthenticated caller",
			caller: "",
			req: dto.CreateAgencyRequest{
				Name:  "Wanderlust Tours",
				Email: "hello@wanderlust.example",
			},
			setupMock: func(repo *agencyMocks.MockAgency) {},
			wantErr:   true,
			wantCode:  401,
		},
		{
			name:   "owner already has an agency",
			caller: "auth0|owner-1",
			req: dto.CreateAgencyRequest{
				Name:  "Second Agency",
				Email: "second@wanderlust.example",
			},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: "23505", Constraint: "agencies_owner_id_key"})
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name:   "agency name taken",
			caller: "auth0|owner-2",
			req: dto.CreateAgencyRequest{
				Name:  "Wanderlust Tours",
				Email: "other@wanderlust.example",
			},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: "23505", Constraint: "agencies_name_key"})
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name:   "repository error",
			caller: "auth0|owner-1",
			req: dto.CreateAgencyRequest{
				Name:  "Wanderlust Tours",
				Email: "hello@wanderlust.example",
			},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockCache := newAgencyService(t)
			allowAsyncCacheWrites(mockCache)
			tt.setupMock(mockRepo)

			err := svc.Create(callerContext(tt.caller), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAgencyService_Get(t *testing.T) {
	agency := model.Agency{
		ID:      "agency-1",
		OwnerID: "auth0|owner-1",
		Name:    "Wanderlust Tours",
		Email:   "hello@wanderlust.example",
		Status:  model.StatusActive,
	}

	tests := []struct {
		name      string
		id        string
		setupMock func(repo *agencyMocks.MockAgency, cache *cacheMocks.MockRedisCache)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "found by id",
			id:   "agency-1",
			setupMock: func(repo *agencyMocks.MockAgency, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(agency, nil)
				cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "not found",
			id:   "missing",
			setupMock: func(repo *agencyMocks.MockAgency, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Agency{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name: "repository error",
			id:   "agency-1",
			setupMock: func(repo *agencyMocks.MockAgency, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Agency{}, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockCache := newAgencyService(t)
			tt.setupMock(mockRepo, mockCache)

			res, err := svc.Get(context.Background(), tt.id)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, agency.ID, res.ID)
				assert.Equal(t, agency.Name, res.Name)
			}
		})
	}
}

func TestAgencyService_GetByOwner(t *testing.T) {
	agency := model.Agency{
		ID:      "agency-1",
		OwnerID: "auth0|owner-1",
		Name:    "Wanderlust Tours",
		Status:  model.StatusActive,
	}

	t.Run("found through repository", func(t *testing.T) {
		svc, mockRepo, mockCache := newAgencyService(t)

		mockCache.EXPECT().Get(gomock.Any(), "agency:owner:auth0|owner-1", gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(agency, nil)
		mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), 300).Return(nil).AnyTimes()

		res, err := svc.GetByOwner(context.Background(), "auth0|owner-1")

		assert.NoError(t, err)
		assert.Equal(t, "agency-1", res.ID)
	})

	t.Run("no agency registered", func(t *testing.T) {
		svc, mockRepo, mockCache := newAgencyService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Agency{}, nil)

		_, err := svc.GetByOwner(context.Background(), "auth0|nobody")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestAgencyService_GetAll(t *testing.T) {
	svc, mockRepo, mockCache := newAgencyService(t)

	models := []model.Agency{
		{ID: "agency-1", Name: "Wanderlust Tours", Status: model.StatusActive},
		{ID: "agency-2", Name: "Island Hoppers", Status: model.StatusActive},
	}

	params := gDto.QueryParams{Page: 1, Limit: 10}

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
	mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
	mockRepo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return(models, nil)
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	res, err := svc.GetAll(context.Background(), params, gDto.FilterGroup{})

	assert.NoError(t, err)
	assert.Len(t, res.Agencies, 2)
	assert.Equal(t, 2, res.TotalData)
	assert.Equal(t, 1, res.TotalPage)
}

func TestAgencyService_Update(t *testing.T) {
	existing := model.Agency{
		ID:      "agency-1",
		OwnerID: "auth0|owner-1",
		Name:    "Wanderlust Tours",
		Status:  model.StatusActive,
	}

	tests := []struct {
		name      string
		caller    string
		req       dto.UpdateAgencyRequest
		setupMock func(repo *agencyMocks.MockAgency)
		wantErr   bool
		wantCode  int
	}{
		{
			name:   "owner updates own agency",
			caller: "auth0|owner-1",
			req:    dto.UpdateAgencyRequest{Name: "Wanderlust Travel"},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, "Wanderlust Travel", fields["name"])

						return nil
					})
			},
			wantErr: false,
		},
		{
			name:      "empty update rejected",
			caller:    "auth0|owner-1",
			req:       dto.UpdateAgencyRequest{},
			setupMock: func(repo *agencyMocks.MockAgency) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name:   "non-owner forbidden",
			caller: "auth0|intruder",
			req:    dto.UpdateAgencyRequest{Name: "Hijacked"},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
			},
			wantErr:  true,
			wantCode: 403,
		},
		{
			name:   "agency not found",
			caller: "auth0|owner-1",
			req:    dto.UpdateAgencyRequest{Name: "Wanderlust Travel"},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Agency{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name:   "name collision on update",
			caller: "auth0|owner-1",
			req:    dto.UpdateAgencyRequest{Name: "Island Hoppers"},
			setupMock: func(repo *agencyMocks.MockAgency) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: "23505", Constraint: "agencies_name_key"})
			},
			wantErr:  true,
			wantCode: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockCache := newAgencyService(t)
			allowAsyncCacheWrites(mockCache)
			tt.setupMock(mockRepo)

			err := svc.Update(callerContext(tt.caller), tt.req, "agency-1")

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
