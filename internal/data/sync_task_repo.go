package data

import (
	"context"
	"time"

	"github.com/gkr185/vip-pay-service/internal/biz"
	"github.com/gkr185/vip-pay-service/internal/constants"
	"github.com/gkr185/vip-pay-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// syncTaskRepo VIP同步任务仓库实现
type syncTaskRepo struct {
	data *Data
	log  *log.Helper
}

// NewVipSyncTaskRepo 创建VIP同步任务仓库
func NewVipSyncTaskRepo(data *Data, logger log.Logger) biz.VipSyncTaskRepo {
	return &syncTaskRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateTask 落盘同步任务
func (r *syncTaskRepo) CreateTask(ctx context.Context, task *biz.VipSyncTask) error {
	m := &model.VipSyncTask{
		TaskKey:     task.TaskKey,
		Op:          task.Op,
		UserID:      task.UserID,
		PlanType:    int(task.PlanType),
		Attempts:    task.Attempts,
		NextRetryAt: task.NextRetryAt,
		Status:      task.Status,
		LastError:   task.LastError,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if !task.VipExpireTime.IsZero() {
		t := task.VipExpireTime
		m.VipExpireTime = &t
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to create sync task %s/%s: %v", task.TaskKey, task.Op, err)
		return err
	}
	task.ID = m.ID
	return nil
}

// ClaimTask 带租约的条件认领: pending 任务直接置为 processing,
// processing 任务只有 claimed_at 超过租约时长才能被重新认领,
// RowsAffected=0 表示已被其他 worker 持有且租约未过期
func (r *syncTaskRepo) ClaimTask(ctx context.Context, id uint64, workerID string, now time.Time) (bool, error) {
	leaseExpiredBefore := now.Add(-constants.SyncClaimLease)
	res := r.data.DB(ctx).Model(&model.VipSyncTask{}).
		Where("id = ? AND (status = ? OR (status = ? AND claimed_at <= ?))",
			id, biz.SyncStatusPending, biz.SyncStatusProcessing, leaseExpiredBefore).
		Updates(map[string]interface{}{
			"status":     biz.SyncStatusProcessing,
			"claimed_by": workerID,
			"claimed_at": now,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindDueTasks 查询到期待重试的任务
// 同时捞出租约过期的 processing 任务: 认领方崩溃未写回终态时,
// 同步义务不能被静默丢弃
func (r *syncTaskRepo) FindDueTasks(ctx context.Context, now time.Time, limit int) ([]*biz.VipSyncTask, error) {
	leaseExpiredBefore := now.Add(-constants.SyncClaimLease)
	var models []model.VipSyncTask
	if err := r.data.DB(ctx).
		Where("(status = ? AND next_retry_at <= ?) OR (status = ? AND claimed_at <= ?)",
			biz.SyncStatusPending, now, biz.SyncStatusProcessing, leaseExpiredBefore).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to find due sync tasks: %v", err)
		return nil, err
	}
	tasks := make([]*biz.VipSyncTask, len(models))
	for i := range models {
		tasks[i] = toBizSyncTask(&models[i])
	}
	return tasks, nil
}

// MarkTaskDone 任务投递成功,保留记录用于审计
func (r *syncTaskRepo) MarkTaskDone(ctx context.Context, id uint64) error {
	return r.data.DB(ctx).Model(&model.VipSyncTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     biz.SyncStatusDone,
			"claimed_by": "",
			"claimed_at": nil,
			"last_error": "",
			"updated_at": time.Now().UTC(),
		}).Error
}

// RescheduleTask 投递失败,按退避时间重排
func (r *syncTaskRepo) RescheduleTask(ctx context.Context, id uint64, attempts int, nextRetryAt time.Time, lastError string) error {
	return r.data.DB(ctx).Model(&model.VipSyncTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        biz.SyncStatusPending,
			"claimed_by":    "",
			"claimed_at":    nil,
			"attempts":      attempts,
			"next_retry_at": nextRetryAt,
			"last_error":    truncateError(lastError),
			"updated_at":    time.Now().UTC(),
		}).Error
}

// MarkTaskFailed 超过最大重试次数,标记失败等待人工处理
func (r *syncTaskRepo) MarkTaskFailed(ctx context.Context, id uint64, lastError string) error {
	return r.data.DB(ctx).Model(&model.VipSyncTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     biz.SyncStatusFailed,
			"claimed_by": "",
			"claimed_at": nil,
			"last_error": truncateError(lastError),
			"updated_at": time.Now().UTC(),
		}).Error
}

func toBizSyncTask(m *model.VipSyncTask) *biz.VipSyncTask {
	task := &biz.VipSyncTask{
		ID:          m.ID,
		TaskKey:     m.TaskKey,
		Op:          m.Op,
		UserID:      m.UserID,
		PlanType:    biz.PlanType(m.PlanType),
		Attempts:    m.Attempts,
		NextRetryAt: m.NextRetryAt,
		Status:      m.Status,
		ClaimedBy:   m.ClaimedBy,
		ClaimedAt:   m.ClaimedAt,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.VipExpireTime != nil {
		task.VipExpireTime = *m.VipExpireTime
	}
	return task
}

// last_error 列长度有限,超长截断
func truncateError(s string) string {
	if len(s) > 512 {
		return s[:512]
	}
	return s
}
