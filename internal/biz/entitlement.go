package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gkr185/vip-pay-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
)

// UserClient 用户服务客户端接口 (防腐层)
// 用户服务独占 VIP 标志和过期时间,本服务只通过该接口写入
type UserClient interface {
	// UpdateVipStatus 设置用户 VIP 状态,过期时间为绝对时间,重复调用幂等
	UpdateVipStatus(ctx context.Context, userID uint64, vipExpireTime time.Time) error
	// CancelVipStatus 取消用户 VIP 状态
	CancelVipStatus(ctx context.Context, userID uint64) error
}

// 同步任务操作类型
const (
	SyncOpGrant  = "grant"
	SyncOpRevoke = "revoke"
)

// 同步任务状态
const (
	SyncStatusPending    = "pending"
	SyncStatusProcessing = "processing"
	SyncStatusDone       = "done"
	SyncStatusFailed     = "failed"
)

// VipSyncTask VIP状态同步任务 (outbox)
// 订单一旦支付成功就不可回退,用户服务同步失败时
// 义务落盘在这里,由重试任务按退避间隔补偿投递
type VipSyncTask struct {
	ID            uint64
	TaskKey       string
	UserID        uint64
	Op            string
	PlanType      PlanType
	VipExpireTime time.Time
	Attempts      int
	NextRetryAt   time.Time
	Status        string
	ClaimedBy     string
	ClaimedAt     *time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VipSyncTaskRepo 同步任务仓库接口
// ClaimTask 是带租约的条件更新: pending 任务直接认领,
// processing 任务只有租约过期 (认领方崩溃未写回终态) 才能被重新认领,
// 保证多个重试 worker 并发时同一任务只被一个 worker 投递
type VipSyncTaskRepo interface {
	CreateTask(ctx context.Context, task *VipSyncTask) error
	ClaimTask(ctx context.Context, id uint64, workerID string, now time.Time) (bool, error)
	FindDueTasks(ctx context.Context, now time.Time, limit int) ([]*VipSyncTask, error)
	MarkTaskDone(ctx context.Context, id uint64) error
	RescheduleTask(ctx context.Context, id uint64, attempts int, nextRetryAt time.Time, lastError string) error
	MarkTaskFailed(ctx context.Context, id uint64, lastError string) error
}

// SyncRetryResult 同步任务重试结果
type SyncRetryResult struct {
	Done        int
	Rescheduled int
	Failed      int
}

// EntitlementUsecase VIP权益同步业务逻辑
type EntitlementUsecase struct {
	tasks    VipSyncTaskRepo
	users    UserClient
	rs       *redsync.Redsync
	now      func() time.Time
	workerID string
	log      *log.Helper
}

// NewEntitlementUsecase 创建VIP权益同步业务逻辑实例
func NewEntitlementUsecase(tasks VipSyncTaskRepo, users UserClient, rs *redsync.Redsync, logger log.Logger) *EntitlementUsecase {
	return &EntitlementUsecase{
		tasks:    tasks,
		users:    users,
		rs:       rs,
		now:      time.Now,
		workerID: uuid.New().String(),
		log:      log.NewHelper(logger),
	}
}

// EnqueueGrant 落盘一条授权同步任务,与订单支付状态同一事务提交
// VIP过期时间 = 支付时间 + 套餐天数,入库后不再重新计算,
// 重试投递的是同一个绝对时间,不会重复延长
func (uc *EntitlementUsecase) EnqueueGrant(ctx context.Context, userID uint64, plan PlanType, payTime time.Time, orderNumber string) (*VipSyncTask, error) {
	now := uc.now().UTC()
	task := &VipSyncTask{
		TaskKey:       orderNumber,
		UserID:        userID,
		Op:            SyncOpGrant,
		PlanType:      plan,
		VipExpireTime: payTime.AddDate(0, 0, plan.Days()),
		Attempts:      0,
		NextRetryAt:   now,
		Status:        SyncStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Revoke 取消用户VIP状态 (支付流程之外的取消场景)
// 先尝试一次直接调用,失败则落盘同步任务走重试
// 任务 key 带唯一后缀: 历史任务 (含已完成/已失败) 会留存审计,
// 同一用户的再次取消不能撞 (task_key, op) 唯一约束
func (uc *EntitlementUsecase) Revoke(ctx context.Context, userID uint64) error {
	now := uc.now().UTC()
	task := &VipSyncTask{
		TaskKey:     fmt.Sprintf("revoke-user-%d-%s", userID, strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		UserID:      userID,
		Op:          SyncOpRevoke,
		Attempts:    0,
		NextRetryAt: now,
		Status:      SyncStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.tasks.CreateTask(ctx, task); err != nil {
		return err
	}
	uc.Deliver(ctx, task)
	return nil
}

// Deliver 立即尝试投递一条同步任务
// 先条件认领,认领失败说明重试 worker 已接手,直接返回;
// 投递失败按退避重排,绝不向调用方冒泡错误
func (uc *EntitlementUsecase) Deliver(ctx context.Context, task *VipSyncTask) {
	if task == nil {
		return
	}
	claimed, err := uc.tasks.ClaimTask(ctx, task.ID, uc.workerID, uc.now().UTC())
	if err != nil {
		uc.log.Errorf("Failed to claim sync task %d: %v", task.ID, err)
		return
	}
	if !claimed {
		return
	}
	uc.attempt(ctx, task)
}

// ProcessPendingSyncs 重试到期的同步任务
// 定时任务入口,逐条认领后投递;扫描范围包含租约过期的
// processing 任务,认领方崩溃后的遗留任务由此接管
func (uc *EntitlementUsecase) ProcessPendingSyncs(ctx context.Context) (*SyncRetryResult, error) {
	result := &SyncRetryResult{}
	due, err := uc.tasks.FindDueTasks(ctx, uc.now().UTC(), constants.SyncClaimBatchSize)
	if err != nil {
		uc.log.Errorf("Failed to find due sync tasks: %v", err)
		return nil, err
	}

	for _, task := range due {
		claimed, err := uc.tasks.ClaimTask(ctx, task.ID, uc.workerID, uc.now().UTC())
		if err != nil {
			uc.log.Errorf("Failed to claim sync task %d: %v", task.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		switch uc.attempt(ctx, task) {
		case SyncStatusDone:
			result.Done++
		case SyncStatusPending:
			result.Rescheduled++
		case SyncStatusFailed:
			result.Failed++
		}
	}

	if result.Done > 0 || result.Rescheduled > 0 || result.Failed > 0 {
		uc.log.Infof("Vip sync retry done: done=%d, rescheduled=%d, failed=%d",
			result.Done, result.Rescheduled, result.Failed)
	}
	return result, nil
}

// ProcessPendingSyncsWithLock 带分布式锁的同步任务重试
func (uc *EntitlementUsecase) ProcessPendingSyncsWithLock(ctx context.Context) (*SyncRetryResult, error) {
	mutex := uc.rs.NewMutex(
		constants.SyncLockKey,
		redsync.WithExpiry(constants.SyncLockExpiration),
		redsync.WithTries(constants.LockRetries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		uc.log.Infof("Vip sync retry skipped: lock busy")
		return &SyncRetryResult{}, nil
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			uc.log.Warnf("Failed to unlock vip sync retry: %v", err)
		}
	}()

	return uc.ProcessPendingSyncs(ctx)
}

// attempt 执行一次已认领任务的投递,返回任务的结果状态
func (uc *EntitlementUsecase) attempt(ctx context.Context, task *VipSyncTask) string {
	var err error
	switch task.Op {
	case SyncOpRevoke:
		err = uc.users.CancelVipStatus(ctx, task.UserID)
	default:
		err = uc.users.UpdateVipStatus(ctx, task.UserID, task.VipExpireTime)
	}

	if err == nil {
		if err := uc.tasks.MarkTaskDone(ctx, task.ID); err != nil {
			uc.log.Errorf("Failed to mark sync task %d done: %v", task.ID, err)
		}
		uc.log.Infof("Vip sync delivered: task=%s, user=%d, op=%s", task.TaskKey, task.UserID, task.Op)
		return SyncStatusDone
	}

	attempts := task.Attempts + 1
	if attempts >= constants.MaxSyncAttempts {
		if markErr := uc.tasks.MarkTaskFailed(ctx, task.ID, err.Error()); markErr != nil {
			uc.log.Errorf("Failed to mark sync task %d failed: %v", task.ID, markErr)
		}
		uc.log.Errorf("Vip sync abandoned after %d attempts, manual intervention required: task=%s, user=%d, op=%s, error=%v",
			attempts, task.TaskKey, task.UserID, task.Op, err)
		return SyncStatusFailed
	}

	nextRetryAt := uc.now().UTC().Add(nextRetryDelay(attempts))
	if resErr := uc.tasks.RescheduleTask(ctx, task.ID, attempts, nextRetryAt, err.Error()); resErr != nil {
		uc.log.Errorf("Failed to reschedule sync task %d: %v", task.ID, resErr)
	}
	uc.log.Warnf("Vip sync failed, will retry at %s (attempt %d/%d): task=%s, error=%v",
		nextRetryAt.Format(time.RFC3339), attempts, constants.MaxSyncAttempts, task.TaskKey, err)
	return SyncStatusPending
}

// nextRetryDelay 指数退避: base * 2^(attempts-1),上限 SyncRetryMaxDelay
func nextRetryDelay(attempts int) time.Duration {
	delay := constants.SyncRetryBaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= constants.SyncRetryMaxDelay {
			return constants.SyncRetryMaxDelay
		}
	}
	return delay
}
