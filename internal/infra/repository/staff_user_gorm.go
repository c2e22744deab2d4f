package repository

import (
	"context"

	"tableorder/internal/domain/model"

	"gorm.io/gorm"
)

type StaffUserGormRepository struct {
	db *gorm.DB
}

func NewStaffUserGormRepository(db *gorm.DB) *StaffUserGormRepository {
	return &StaffUserGormRepository{db: db}
}

func (r *StaffUserGormRepository) Create(ctx context.Context, user *model.StaffUser) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *StaffUserGormRepository) FindByEmail(ctx context.Context, email string) (*model.StaffUser, error) {
	var u model.StaffUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *StaffUserGormRepository) FindByID(ctx context.Context, id string) (*model.StaffUser, error) {
	var u model.StaffUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *StaffUserGormRepository) Update(ctx context.Context, user *model.StaffUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}
