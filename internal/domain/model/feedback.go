package model

import "time"

type Feedback struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID string    `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	FeedbackText string    `gorm:"type:text;not null" json:"feedback_text"`
	Rating       int       `gorm:"not null" json:"rating"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
