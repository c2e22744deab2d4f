package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Restaurants() RestaurantRepository
	MenuItems() MenuItemRepository
	Carts() CartRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	OrderCounters() OrderCounterRepository
	Payments() PaymentRepository
	StaffUsers() StaffUserRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
