package repository

import (
	"context"

	"tableorder/internal/domain/model"
)

type StaffUserRepository interface {
	Create(ctx context.Context, user *model.StaffUser) error
	FindByEmail(ctx context.Context, email string) (*model.StaffUser, error)
	FindByID(ctx context.Context, id string) (*model.StaffUser, error)
	Update(ctx context.Context, user *model.StaffUser) error
}
