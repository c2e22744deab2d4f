package model

import "time"

// メニュー価格変更、注文ステータス更新など。
type AuditAction string

const (
	//メニュー商品の価格・公開状態を変えた操作。
	AuditActionUpdateMenuItem AuditAction = "UPDATE_MENU_ITEM"
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceMenuItem AuditResourceType = "menu_item"
	AuditResourceOrder    AuditResourceType = "order"
)

// 監査ログ（スタッフ操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	RestaurantID string `gorm:"type:uuid;not null;index:idx_audit_logs_restaurant_created,priority:1" json:"restaurant_id"`

	//操作したスタッフのID。
	ActorStaffID string `gorm:"type:uuid;not null;index" json:"actor_staff_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID string `gorm:"type:uuid;not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index:idx_audit_logs_restaurant_created,priority:2" json:"created_at"`
}
