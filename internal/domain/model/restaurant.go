package model

import "time"

type Restaurant struct {
	ID   string `gorm:"type:uuid;primaryKey" json:"id"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	// 新規注文の通知先（空なら通知しない）
	TelegramChatID int64     `gorm:"not null" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
