package biz

import (
	"context"

	"github.com/gkr185/vip-pay-service/internal/constants"

	"github.com/go-redsync/redsync/v4"
)

// SweepResult 过期订单清理结果
type SweepResult struct {
	// Expired 本轮置为已过期的订单数
	Expired int
	// Skipped 扫描到但已被其他写入方处理的订单数
	Skipped int
}

// CancelExpiredOrders 将超过支付期限仍待支付的订单置为已过期
// 每条订单走条件状态更新: 支付回调先落地时本方更新返回 false,
// 视为他人已处理并跳过,绝不覆盖已支付状态
// 单条失败只记录日志,不中断本轮清理
func (uc *PaymentUsecase) CancelExpiredOrders(ctx context.Context) (*SweepResult, error) {
	overdue, err := uc.repo.FindOverdueOrders(ctx, uc.now().UTC())
	if err != nil {
		uc.log.Errorf("Failed to find overdue orders: %v", err)
		return nil, err
	}

	result := &SweepResult{}
	for _, order := range overdue {
		ok, err := uc.repo.TransitionStatus(ctx, order.OrderNumber, StatusPending, StatusExpired, nil)
		if err != nil {
			uc.log.Errorf("Failed to expire order %s: %v", order.OrderNumber, err)
			continue
		}
		if !ok {
			// 回调抢先落地,订单已是终态
			result.Skipped++
			uc.log.Infof("Order %s resolved concurrently, skipping expiry", order.OrderNumber)
			continue
		}
		result.Expired++
	}

	if result.Expired > 0 || result.Skipped > 0 {
		uc.log.Infof("Expired order sweep done: expired=%d, skipped=%d", result.Expired, result.Skipped)
	}
	return result, nil
}

// CancelExpiredOrdersWithLock 带分布式锁的过期订单清理
// 多实例部署时同一时刻只有一个实例执行扫描,锁竞争失败直接跳过本轮
// (条件状态更新本身已保证正确性,锁只是避免重复扫描)
func (uc *PaymentUsecase) CancelExpiredOrdersWithLock(ctx context.Context) (*SweepResult, error) {
	mutex := uc.rs.NewMutex(
		constants.SweepLockKey,
		redsync.WithExpiry(constants.SweepLockExpiration),
		redsync.WithTries(constants.LockRetries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		uc.log.Infof("Expired order sweep skipped: lock busy")
		return &SweepResult{}, nil
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			uc.log.Warnf("Failed to unlock expired order sweep: %v", err)
		}
	}()

	return uc.CancelExpiredOrders(ctx)
}
