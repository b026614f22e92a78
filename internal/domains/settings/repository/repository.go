package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tavolo/infras/otel"
	"tavolo/infras/postgres"
	"tavolo/internal/domains/settings/model"
	gDto "tavolo/shared/dto"
	gRepo "tavolo/shared/repository"
)

type Settings interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.ExpirationSettings, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.ExpirationSettings]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Settings {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.ExpirationSettings](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
