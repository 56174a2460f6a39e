package biz

import (
	"context"

	"github.com/gkr185/vip-pay-service/internal/constants"
)

// HandlePaymentCallback 处理支付网关回调
// 网关可能重复投递同一通知,必须幂等:
// 条件状态更新返回 false 表示订单已被其他写入方 (先到的回调或过期清理)
// 置为终态,此时按成功应答,不再触发任何副作用
func (uc *PaymentUsecase) HandlePaymentCallback(ctx context.Context, orderNumber, result string) error {
	order, err := uc.repo.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		uc.log.Warnf("Callback for unknown order %s: %v", orderNumber, err)
		return err
	}

	if result != constants.CallbackResultSuccess {
		ok, err := uc.repo.TransitionStatus(ctx, orderNumber, StatusPending, StatusFailed, nil)
		if err != nil {
			uc.log.Errorf("Failed to mark order %s failed: %v", orderNumber, err)
			return err
		}
		if !ok {
			uc.log.Infof("Order %s already terminal, failure callback ignored (idempotent)", orderNumber)
			return nil
		}
		uc.log.Infof("Order %s marked failed by gateway callback", orderNumber)
		return nil
	}

	payTime := uc.now().UTC()
	var (
		won  bool
		task *VipSyncTask
	)
	// 状态流转和同步任务落盘放在同一事务:
	// 订单置为已支付的同时授权义务必须持久化,两者不可分离提交
	err = uc.tm.Exec(ctx, func(ctx context.Context) error {
		ok, err := uc.repo.TransitionStatus(ctx, orderNumber, StatusPending, StatusPaid, &payTime)
		if err != nil {
			return err
		}
		won = ok
		if !ok {
			return nil
		}
		task, err = uc.entitlement.EnqueueGrant(ctx, order.UserID, order.PlanType, payTime, orderNumber)
		return err
	})
	if err != nil {
		uc.log.Errorf("Failed to handle success callback for order %s: %v", orderNumber, err)
		return err
	}
	if !won {
		uc.log.Infof("Order %s already terminal, success callback ignored (idempotent)", orderNumber)
		return nil
	}

	uc.log.Infof("Order %s paid: user=%d, plan=%s", orderNumber, order.UserID, order.PlanType.Name())

	// 立即尝试推送一次,失败由重试任务兜底,不影响回调应答
	uc.entitlement.Deliver(ctx, task)
	return nil
}

// CheckPaymentStatus 查询订单支付状态 (客户端轮询)
func (uc *PaymentUsecase) CheckPaymentStatus(ctx context.Context, orderNumber string) (*Order, error) {
	return uc.repo.GetOrderByNumber(ctx, orderNumber)
}
