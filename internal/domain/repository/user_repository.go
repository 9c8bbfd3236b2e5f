package repository

import (
	"context"

	"convochat/internal/domain/entity"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, uid string) (*entity.User, error)
	SetOnlineStatus(ctx context.Context, uid string, online bool) error
	ListOrderedByName(ctx context.Context, limit int) ([]*entity.User, error)
}
