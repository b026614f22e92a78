package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tavolo/infras/otel"
	"tavolo/infras/postgres"
	"tavolo/internal/domains/reservation/model"
	"tavolo/shared/constant"
	gDto "tavolo/shared/dto"
	"tavolo/shared/logger"
	gRepo "tavolo/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Reservation interface {
	Insert(ctx context.Context, model model.Reservation) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	UpdateTxChecked(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) (int64, error)
	DeleteTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	AveragePartySize(ctx context.Context) (float64, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (repo *repositoryImpl) CountByStatus(ctx context.Context) (map[string]int, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.CountByStatus")
	defer scope.End()

	query := fmt.Sprintf("SELECT %s, COUNT(%s) AS total FROM %s GROUP BY %s",
		model.FieldStatus, model.FieldID, model.TableName, model.FieldStatus)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	rows := []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}{}

	if err := repo.db.Read.SelectContext(ctx, &rows, query); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to count reservations by status: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}

func (repo *repositoryImpl) AveragePartySize(ctx context.Context) (float64, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.AveragePartySize")
	defer scope.End()

	query := fmt.Sprintf("SELECT COALESCE(AVG(%s), 0) FROM %s", model.FieldPartySize, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var avg float64

	if err := repo.db.Read.GetContext(ctx, &avg, query); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to average reservation party size: %w", err)
	}

	return avg, nil
}
