package usecase

import (
	"context"
	"net/http"
	"strings"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"
)

// AuditLogUsecase はスタッフ操作の履歴（オーナー向け）
type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

// DI
func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditLogUsecase) List(ctx context.Context, q repo.AuditLogQuery) (AuditLogListOutput, error) {
	if !validID(q.RestaurantID) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	q.Action = model.AuditAction(strings.ToUpper(strings.TrimSpace(string(q.Action))))
	switch q.Action {
	case "", model.AuditActionUpdateMenuItem, model.AuditActionUpdateOrderStatus:
	default:
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	switch q.ResourceType {
	case "", model.AuditResourceMenuItem, model.AuditResourceOrder:
	default:
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
	}
	if q.ResourceID != "" && !validID(q.ResourceID) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_id")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}
	q.Page, q.Limit = normalizePage(q.Page, q.Limit)

	logs, total, err := u.logs.ListByRestaurant(ctx, q)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Total: total, Page: q.Page, Limit: q.Limit}, nil
}
