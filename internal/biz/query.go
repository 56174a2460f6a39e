package biz

import (
	"context"

	"github.com/gkr185/vip-pay-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

// OrderStatistics 订单聚合统计
// 不变式: TotalOrders = Pending + Paid + Failed + Cancelled + Expired
type OrderStatistics struct {
	TotalOrders     int64           `json:"totalOrders"`
	PendingOrders   int64           `json:"pendingOrders"`
	PaidOrders      int64           `json:"paidOrders"`
	FailedOrders    int64           `json:"failedOrders"`
	CancelledOrders int64           `json:"cancelledOrders"`
	ExpiredOrders   int64           `json:"expiredOrders"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	PaymentRate     float64         `json:"paymentRate"`

	WechatOrders   int64 `json:"wechatOrders"`
	AlipayOrders   int64 `json:"alipayOrders"`
	BankCardOrders int64 `json:"bankCardOrders"`

	MonthlyOrders   int64 `json:"monthlyOrders"`
	QuarterlyOrders int64 `json:"quarterlyOrders"`
	YearlyOrders    int64 `json:"yearlyOrders"`
}

// StatisticsCache 统计结果缓存接口,data 层用 redis 实现
type StatisticsCache interface {
	GetStatistics(ctx context.Context) (*OrderStatistics, bool, error)
	SetStatistics(ctx context.Context, stats *OrderStatistics) error
}

// OrderQueryUsecase 订单读侧业务逻辑,只读不写
type OrderQueryUsecase struct {
	repo  OrderRepo
	cache StatisticsCache
	log   *log.Helper
}

// NewOrderQueryUsecase 创建订单读侧业务逻辑实例
func NewOrderQueryUsecase(repo OrderRepo, cache StatisticsCache, logger log.Logger) *OrderQueryUsecase {
	return &OrderQueryUsecase{
		repo:  repo,
		cache: cache,
		log:   log.NewHelper(logger),
	}
}

// ListOrders 按条件分页查询订单
func (uc *OrderQueryUsecase) ListOrders(ctx context.Context, filter *OrderFilter) ([]*Order, int64, error) {
	if filter == nil {
		filter = &OrderFilter{}
	}
	normalizePage(&filter.Page, &filter.Size)
	return uc.repo.ListOrders(ctx, filter)
}

// ListUserOrders 查询用户的订单列表
func (uc *OrderQueryUsecase) ListUserOrders(ctx context.Context, userID uint64, page, size int) ([]*Order, int64, error) {
	normalizePage(&page, &size)
	return uc.repo.ListUserOrders(ctx, userID, page, size)
}

// GetOrderStatistics 获取订单聚合统计,结果缓存一分钟
func (uc *OrderQueryUsecase) GetOrderStatistics(ctx context.Context) (*OrderStatistics, error) {
	if cached, ok, err := uc.cache.GetStatistics(ctx); err == nil && ok {
		return cached, nil
	} else if err != nil {
		// 缓存故障降级为直接查库
		uc.log.Warnf("Statistics cache read failed: %v", err)
	}

	stats := &OrderStatistics{}
	var err error
	statusCounts := []struct {
		status OrderStatus
		target *int64
	}{
		{StatusPending, &stats.PendingOrders},
		{StatusPaid, &stats.PaidOrders},
		{StatusFailed, &stats.FailedOrders},
		{StatusCancelled, &stats.CancelledOrders},
		{StatusExpired, &stats.ExpiredOrders},
	}
	for _, sc := range statusCounts {
		if *sc.target, err = uc.repo.CountOrdersByStatus(ctx, sc.status); err != nil {
			return nil, err
		}
		// 总数从各状态计数累加,单独 COUNT(*) 会和分状态查询
		// 之间的并发写入拆开,破坏总数等于各状态之和
		stats.TotalOrders += *sc.target
	}

	if stats.TotalAmount, err = uc.repo.SumOrderAmount(ctx, nil); err != nil {
		return nil, err
	}
	paid := StatusPaid
	if stats.PaidAmount, err = uc.repo.SumOrderAmount(ctx, &paid); err != nil {
		return nil, err
	}

	if stats.TotalOrders > 0 {
		stats.PaymentRate = float64(stats.PaidOrders) / float64(stats.TotalOrders)
	}

	methodCounts := []struct {
		method PaymentMethod
		target *int64
	}{
		{MethodWechat, &stats.WechatOrders},
		{MethodAlipay, &stats.AlipayOrders},
		{MethodBankCard, &stats.BankCardOrders},
	}
	for _, mc := range methodCounts {
		if *mc.target, err = uc.repo.CountOrdersByMethod(ctx, mc.method); err != nil {
			return nil, err
		}
	}

	planCounts := []struct {
		plan   PlanType
		target *int64
	}{
		{PlanMonthly, &stats.MonthlyOrders},
		{PlanQuarterly, &stats.QuarterlyOrders},
		{PlanYearly, &stats.YearlyOrders},
	}
	for _, pc := range planCounts {
		if *pc.target, err = uc.repo.CountOrdersByPlan(ctx, pc.plan); err != nil {
			return nil, err
		}
	}

	if err := uc.cache.SetStatistics(ctx, stats); err != nil {
		uc.log.Warnf("Statistics cache write failed: %v", err)
	}
	return stats, nil
}

// normalizePage 分页参数校正
func normalizePage(page, size *int) {
	if *page < 1 {
		*page = 1
	}
	if *size < 1 {
		*size = constants.DefaultPageSize
	}
	if *size > constants.MaxPageSize {
		*size = constants.MaxPageSize
	}
}
