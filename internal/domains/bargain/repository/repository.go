package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tripmarket/infras/otel"
	"tripmarket/infras/postgres"
	"tripmarket/internal/domains/bargain/model"
	gDto "tripmarket/shared/dto"
	gRepo "tripmarket/shared/repository"
)

type Bargain interface {
	Insert(ctx context.Context, model model.BargainRequest) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.BargainRequest, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.BargainRequest, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.BargainRequest]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Bargain {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.BargainRequest](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
