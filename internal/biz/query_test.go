package biz

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkr185/vip-pay-service/internal/constants"
)

// seedOrders 造 10 笔订单: 6 已支付 2 待支付 1 已取消 1 已过期
func seedOrders(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	specs := []struct {
		user   uint64
		plan   PlanType
		amount string
		method PaymentMethod
		status OrderStatus
	}{
		{1, PlanMonthly, "19.90", MethodWechat, StatusPaid},
		{2, PlanMonthly, "19.90", MethodWechat, StatusPaid},
		{3, PlanQuarterly, "49.90", MethodAlipay, StatusPaid},
		{4, PlanQuarterly, "49.90", MethodAlipay, StatusPaid},
		{5, PlanYearly, "199.00", MethodBankCard, StatusPaid},
		{1, PlanYearly, "199.00", MethodWechat, StatusPaid},
		{6, PlanMonthly, "19.90", MethodWechat, StatusPending},
		{7, PlanMonthly, "19.90", MethodAlipay, StatusPending},
		{8, PlanMonthly, "19.90", MethodWechat, StatusCancelled},
		{9, PlanMonthly, "19.90", MethodWechat, StatusExpired},
	}
	for i, s := range specs {
		env.setNow(base.Add(time.Duration(i) * time.Minute))
		amount, err := decimal.NewFromString(s.amount)
		require.NoError(t, err)
		order, err := env.payment.CreateOrder(ctx, s.user, s.plan, amount, s.method)
		require.NoError(t, err)
		if s.status != StatusPending {
			ok, err := env.repo.TransitionStatus(ctx, order.OrderNumber, StatusPending, s.status, nil)
			require.NoError(t, err)
			require.True(t, ok)
		}
	}
}

func newQueryEnv(t *testing.T) (*testEnv, *OrderQueryUsecase, *fakeStatCache) {
	env := newTestEnv()
	seedOrders(t, env)
	cache := &fakeStatCache{}
	return env, NewOrderQueryUsecase(env.repo, cache, testLogger()), cache
}

func TestGetOrderStatistics(t *testing.T) {
	_, query, _ := newQueryEnv(t)

	stats, err := query.GetOrderStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(10), stats.TotalOrders)
	assert.Equal(t, int64(6), stats.PaidOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)
	assert.Equal(t, int64(0), stats.FailedOrders)
	assert.Equal(t, int64(1), stats.CancelledOrders)
	assert.Equal(t, int64(1), stats.ExpiredOrders)

	// 各状态计数之和等于总数
	sum := stats.PendingOrders + stats.PaidOrders + stats.FailedOrders +
		stats.CancelledOrders + stats.ExpiredOrders
	assert.Equal(t, stats.TotalOrders, sum)

	assert.InDelta(t, 0.6, stats.PaymentRate, 1e-9)
	assert.True(t, stats.TotalAmount.Equal(decimal.NewFromFloat(617.20)), stats.TotalAmount.String())
	assert.True(t, stats.PaidAmount.Equal(decimal.NewFromFloat(537.60)), stats.PaidAmount.String())

	assert.Equal(t, int64(6), stats.WechatOrders)
	assert.Equal(t, int64(3), stats.AlipayOrders)
	assert.Equal(t, int64(1), stats.BankCardOrders)
	assert.Equal(t, int64(6), stats.MonthlyOrders)
	assert.Equal(t, int64(2), stats.QuarterlyOrders)
	assert.Equal(t, int64(2), stats.YearlyOrders)
}

func TestGetOrderStatisticsInvariantUnderConcurrentWrite(t *testing.T) {
	env, query, _ := newQueryEnv(t)
	ctx := context.Background()

	// 统计各状态期间落入一笔新订单,总数必须仍等于各状态计数之和
	var injected bool
	env.repo.onStatusCount = func(status OrderStatus) {
		if status == StatusPaid && !injected {
			injected = true
			env.setNow(time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC))
			_, err := env.payment.CreateOrder(ctx, 77, PlanMonthly, decimal.NewFromFloat(19.9), MethodWechat)
			require.NoError(t, err)
		}
	}

	stats, err := query.GetOrderStatistics(ctx)
	require.NoError(t, err)
	require.True(t, injected)

	sum := stats.PendingOrders + stats.PaidOrders + stats.FailedOrders +
		stats.CancelledOrders + stats.ExpiredOrders
	assert.Equal(t, stats.TotalOrders, sum)
}

func TestGetOrderStatisticsEmpty(t *testing.T) {
	env := newTestEnv()
	query := NewOrderQueryUsecase(env.repo, &fakeStatCache{}, testLogger())

	stats, err := query.GetOrderStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalOrders)
	assert.Equal(t, float64(0), stats.PaymentRate)
	assert.True(t, stats.TotalAmount.IsZero())
}

func TestGetOrderStatisticsServedFromCache(t *testing.T) {
	env, query, cache := newQueryEnv(t)

	first, err := query.GetOrderStatistics(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cache.stats)

	// 缓存命中后不再回源: 新增订单不影响返回结果
	env.setNow(time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC))
	_, err = env.payment.CreateOrder(context.Background(), 99, PlanMonthly, decimal.NewFromFloat(19.9), MethodWechat)
	require.NoError(t, err)

	second, err := query.GetOrderStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.TotalOrders, second.TotalOrders)
}

func TestListOrdersFilterAndPagination(t *testing.T) {
	_, query, _ := newQueryEnv(t)
	ctx := context.Background()

	paid := StatusPaid
	orders, total, err := query.ListOrders(ctx, &OrderFilter{Status: &paid, Page: 1, Size: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, orders, 4)

	orders, total, err = query.ListOrders(ctx, &OrderFilter{Status: &paid, Page: 2, Size: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, orders, 2)

	// 超出范围的页返回空列表,总数不变
	orders, total, err = query.ListOrders(ctx, &OrderFilter{Status: &paid, Page: 5, Size: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, orders, 0)
}

func TestListUserOrders(t *testing.T) {
	_, query, _ := newQueryEnv(t)

	orders, total, err := query.ListUserOrders(context.Background(), 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, uint64(1), o.UserID)
	}
	// 创建时间倒序
	assert.True(t, orders[0].CreateTime.After(orders[1].CreateTime))
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, constants.DefaultPageSize},
		{-3, -1, 1, constants.DefaultPageSize},
		{2, 20, 2, 20},
		{1, 1000, 1, constants.MaxPageSize},
	}
	for _, tt := range tests {
		page, size := tt.page, tt.size
		normalizePage(&page, &size)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantSize, size)
	}
}
