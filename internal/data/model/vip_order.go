package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VipOrder VIP订单模型
type VipOrder struct {
	ID             uint64          `gorm:"primaryKey;column:id;autoIncrement"`
	OrderNumber    string          `gorm:"column:order_number;size:32;uniqueIndex"`
	UserID         uint64          `gorm:"column:user_id;index"`
	PlanType       int             `gorm:"column:plan_type"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(10,2)"`
	PaymentMethod  int             `gorm:"column:payment_method"`
	Status         int             `gorm:"column:status;index"`
	QRCodeURL      string          `gorm:"column:qr_code_url;size:255"`
	CreateTime     time.Time       `gorm:"column:create_time"`
	PayTime        *time.Time      `gorm:"column:pay_time"`
	ExpireDeadline time.Time       `gorm:"column:expire_deadline;index"`
}

func (VipOrder) TableName() string { return "vip_order" }
