package repository

import (
	"context"

	repo "tableorder/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	restaurants   repo.RestaurantRepository
	menuItems     repo.MenuItemRepository
	carts         repo.CartRepository
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	orderCounters repo.OrderCounterRepository
	payments      repo.PaymentRepository
	staffUsers    repo.StaffUserRepository
	auditLogs     repo.AuditLogRepository
}

func (r *txReposGorm) Restaurants() repo.RestaurantRepository     { return r.restaurants }
func (r *txReposGorm) MenuItems() repo.MenuItemRepository         { return r.menuItems }
func (r *txReposGorm) Carts() repo.CartRepository                 { return r.carts }
func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *txReposGorm) OrderCounters() repo.OrderCounterRepository { return r.orderCounters }
func (r *txReposGorm) Payments() repo.PaymentRepository           { return r.payments }
func (r *txReposGorm) StaffUsers() repo.StaffUserRepository       { return r.staffUsers }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository         { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			restaurants:   NewRestaurantGormRepository(tx),
			menuItems:     NewMenuItemGormRepository(tx),
			carts:         NewCartGormRepository(tx),
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			orderCounters: NewOrderCounterGormRepository(tx),
			payments:      NewPaymentGormRepository(tx),
			staffUsers:    NewStaffUserGormRepository(tx),
			auditLogs:     NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
