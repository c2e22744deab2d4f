package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDが空ならUUIDを採番する
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error   { ensureID(&r.ID); return nil }
func (m *Menu) BeforeCreate(tx *gorm.DB) error         { ensureID(&m.ID); return nil }
func (c *MenuCategory) BeforeCreate(tx *gorm.DB) error { ensureID(&c.ID); return nil }
func (i *MenuItem) BeforeCreate(tx *gorm.DB) error     { ensureID(&i.ID); return nil }
func (c *CartItem) BeforeCreate(tx *gorm.DB) error     { ensureID(&c.ID); return nil }
func (o *Order) BeforeCreate(tx *gorm.DB) error        { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error    { ensureID(&i.ID); return nil }
func (p *Payment) BeforeCreate(tx *gorm.DB) error      { ensureID(&p.ID); return nil }
func (f *Feedback) BeforeCreate(tx *gorm.DB) error     { ensureID(&f.ID); return nil }
func (s *StaffUser) BeforeCreate(tx *gorm.DB) error    { ensureID(&s.ID); return nil }
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error     { ensureID(&a.ID); return nil }
