package repository

import (
	"context"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p *model.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentGormRepository) FindBySessionID(ctx context.Context, sessionID string) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&p).Error; err != nil {
		return model.Payment{}, translate(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) FindBySessionIDForUpdate(ctx context.Context, sessionID string) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&p).Error
	if err != nil {
		return model.Payment{}, translate(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) MarkCompleted(ctx context.Context, sessionID string, orderID string, receiptURL string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":      model.PaymentStatusCompleted,
			"order_id":    orderID,
			"receipt_url": receiptURL,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PaymentGormRepository) UpdateStatus(ctx context.Context, sessionID string, status model.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("session_id = ?", sessionID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PaymentGormRepository) ExpireOpenByTable(ctx context.Context, restaurantID string, tableID string) ([]string, error) {
	var sessionIDs []string
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ? AND table_id = ? AND status = ?", restaurantID, tableID, model.PaymentStatusOpen).
		Order("created_at ASC").
		Pluck("session_id", &sessionIDs).Error
	if err != nil {
		return nil, err
	}
	if len(sessionIDs) == 0 {
		return []string{}, nil
	}

	err = r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("session_id IN ?", sessionIDs).
		Update("status", model.PaymentStatusExpired).Error
	if err != nil {
		return nil, err
	}
	return sessionIDs, nil
}
