package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tripmarket/infras/otel"
	"tripmarket/infras/postgres"
	"tripmarket/internal/domains/trip/model"
	"tripmarket/shared/constant"
	gDto "tripmarket/shared/dto"
	gRepo "tripmarket/shared/repository"
	"tripmarket/shared/timezone"
)

type Trip interface {
	Insert(ctx context.Context, model model.Trip) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Trip, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Trip, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	ReserveSlot(ctx context.Context, id string) (bool, error)
	ReleaseSlot(ctx context.Context, id string) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Trip]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Trip {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Trip](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// ReserveSlot consumes one capacity slot with a single conditional update.
// The WHERE guard makes the increment atomic under concurrent bookings;
// false means the trip is already at capacity.
func (repo *repositoryImpl) ReserveSlot(ctx context.Context, id string) (ok bool, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ReserveSlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"UPDATE %s SET current_bookings = current_bookings + 1, modified_at = :modified_at WHERE id = :id AND current_bookings < max_capacity",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.NamedExecContext(ctx, query, map[string]any{
		"id":          id,
		"modified_at": timezone.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to reserve slot (%s): %w", model.EntityName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows (%s): %w", model.EntityName, err)
	}

	return affected > 0, nil
}

// ReleaseSlot returns a slot, used when booking persistence fails after a
// reservation or when a booking is cancelled. The guard keeps the counter
// from going negative.
func (repo *repositoryImpl) ReleaseSlot(ctx context.Context, id string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ReleaseSlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"UPDATE %s SET current_bookings = current_bookings - 1, modified_at = :modified_at WHERE id = :id AND current_bookings > 0",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err = repo.db.Write.NamedExecContext(ctx, query, map[string]any{
		"id":          id,
		"modified_at": timezone.Now(),
	}); err != nil {
		return fmt.Errorf("failed to release slot (%s): %w", model.EntityName, err)
	}

	return nil
}

type TripImage interface {
	Insert(ctx context.Context, model model.TripImage) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.TripImage, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type imageRepositoryImpl struct {
	gRepo.Repository[model.TripImage]
	db   *postgres.Connection
	otel otel.Otel
}

func NewImage(db *postgres.Connection, otel otel.Otel) TripImage {
	return &imageRepositoryImpl{
		Repository: gRepo.NewRepository[model.TripImage](model.ImageEntityName, model.ImageTableName, model.ImageFieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
