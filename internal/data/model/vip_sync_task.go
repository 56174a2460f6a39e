package model

import "time"

// VipSyncTask VIP状态同步任务模型 (outbox)
type VipSyncTask struct {
	ID            uint64     `gorm:"primaryKey;column:id;autoIncrement"`
	TaskKey       string     `gorm:"column:task_key;size:64;uniqueIndex:uk_task_key_op"`
	Op            string     `gorm:"column:op;size:16;uniqueIndex:uk_task_key_op"`
	UserID        uint64     `gorm:"column:user_id;index"`
	PlanType      int        `gorm:"column:plan_type"`
	VipExpireTime *time.Time `gorm:"column:vip_expire_time"`
	Attempts      int        `gorm:"column:attempts"`
	NextRetryAt   time.Time  `gorm:"column:next_retry_at;index"`
	Status        string     `gorm:"column:status;size:16;index"`
	ClaimedBy     string     `gorm:"column:claimed_by;size:64"`
	ClaimedAt     *time.Time `gorm:"column:claimed_at"`
	LastError     string     `gorm:"column:last_error;size:512"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (VipSyncTask) TableName() string { return "vip_sync_task" }
