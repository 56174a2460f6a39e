package biz

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"

	"github.com/gkr185/vip-pay-service/internal/constants"
	bizErrors "github.com/gkr185/vip-pay-service/internal/errors"
)

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

// fakeOrderRepo 内存订单仓库,条件状态更新与存储层语义一致,
// 用互斥锁保证并发测试的确定性
type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID uint64
	orders map[string]*Order

	// dupRemaining 前 N 次创建返回订单号冲突
	dupRemaining int
	// afterFindOverdue 扫描和状态更新之间的注入点,用于模拟并发写入
	afterFindOverdue func()
	// onStatusCount 每次分状态计数前的注入点,用于模拟统计期间的并发写入
	onStatusCount func(status OrderStatus)
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*Order)}
}

func (r *fakeOrderRepo) CreateOrder(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dupRemaining > 0 {
		r.dupRemaining--
		return ErrDuplicateOrderNumber
	}
	if _, ok := r.orders[order.OrderNumber]; ok {
		return ErrDuplicateOrderNumber
	}
	r.nextID++
	order.ID = r.nextID
	cp := *order
	r.orders[order.OrderNumber] = &cp
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(ctx context.Context, id uint64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, bizErrors.ErrOrderNotFound("")
}

func (r *fakeOrderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNumber]
	if !ok {
		return nil, bizErrors.ErrOrderNotFound(orderNumber)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) TransitionStatus(ctx context.Context, orderNumber string, from, to OrderStatus, payTime *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNumber]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if payTime != nil {
		t := *payTime
		o.PayTime = &t
	}
	return true, nil
}

func (r *fakeOrderRepo) FindOverdueOrders(ctx context.Context, now time.Time) ([]*Order, error) {
	r.mu.Lock()
	var overdue []*Order
	for _, o := range r.orders {
		if o.Status == StatusPending && o.ExpireDeadline.Before(now) {
			cp := *o
			overdue = append(overdue, &cp)
		}
	}
	r.mu.Unlock()
	if r.afterFindOverdue != nil {
		r.afterFindOverdue()
	}
	return overdue, nil
}

func (r *fakeOrderRepo) ListOrders(ctx context.Context, filter *OrderFilter) ([]*Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*Order
	for _, o := range r.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		cp := *o
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreateTime.After(matched[j].CreateTime)
	})
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Size
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeOrderRepo) ListUserOrders(ctx context.Context, userID uint64, page, size int) ([]*Order, int64, error) {
	return r.ListOrders(ctx, &OrderFilter{UserID: &userID, Page: page, Size: size})
}

func (r *fakeOrderRepo) CountOrdersByStatus(ctx context.Context, status OrderStatus) (int64, error) {
	if r.onStatusCount != nil {
		r.onStatusCount(status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) CountOrdersByMethod(ctx context.Context, method PaymentMethod) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.PaymentMethod == method {
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) CountOrdersByPlan(ctx context.Context, plan PlanType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.PlanType == plan {
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) SumOrderAmount(ctx context.Context, status *OrderStatus) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, o := range r.orders {
		if status != nil && o.Status != *status {
			continue
		}
		sum = sum.Add(o.Amount)
	}
	return sum, nil
}

func (r *fakeOrderRepo) status(orderNumber string) OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderNumber].Status
}

// fakeGateway 固定前缀的二维码地址
type fakeGateway struct{}

func (fakeGateway) QRCodeURL(orderNumber string) string {
	return "https://example.com/pay/" + orderNumber
}

// fakeTx 直接执行,无真实事务
type fakeTx struct{}

func (fakeTx) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// userCall 一次用户服务调用记录
type userCall struct {
	userID uint64
	op     string
	expire time.Time
}

// fakeUserClient 记录调用并可注入前 N 次失败
type fakeUserClient struct {
	mu        sync.Mutex
	calls     []userCall
	failTimes int
}

func (c *fakeUserClient) UpdateVipStatus(ctx context.Context, userID uint64, vipExpireTime time.Time) error {
	return c.record(userCall{userID: userID, op: SyncOpGrant, expire: vipExpireTime})
}

func (c *fakeUserClient) CancelVipStatus(ctx context.Context, userID uint64) error {
	return c.record(userCall{userID: userID, op: SyncOpRevoke})
}

func (c *fakeUserClient) record(call userCall) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failTimes > 0 {
		c.failTimes--
		return context.DeadlineExceeded
	}
	c.calls = append(c.calls, call)
	return nil
}

func (c *fakeUserClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// fakeTaskRepo 内存同步任务仓库,(task_key, op) 唯一约束
// 和带租约的认领语义与存储层一致
type fakeTaskRepo struct {
	mu     sync.Mutex
	nextID uint64
	tasks  map[uint64]*VipSyncTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uint64]*VipSyncTask)}
}

func (r *fakeTaskRepo) CreateTask(ctx context.Context, task *VipSyncTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.TaskKey == task.TaskKey && t.Op == task.Op {
			return errors.New("duplicate task key")
		}
	}
	r.nextID++
	task.ID = r.nextID
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) ClaimTask(ctx context.Context, id uint64, workerID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false, nil
	}
	reclaimable := t.Status == SyncStatusProcessing &&
		t.ClaimedAt != nil && !t.ClaimedAt.After(now.Add(-constants.SyncClaimLease))
	if t.Status != SyncStatusPending && !reclaimable {
		return false, nil
	}
	t.Status = SyncStatusProcessing
	t.ClaimedBy = workerID
	claimedAt := now
	t.ClaimedAt = &claimedAt
	return true, nil
}

func (r *fakeTaskRepo) FindDueTasks(ctx context.Context, now time.Time, limit int) ([]*VipSyncTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*VipSyncTask
	for _, t := range r.tasks {
		pendingDue := t.Status == SyncStatusPending && !t.NextRetryAt.After(now)
		leaseExpired := t.Status == SyncStatusProcessing &&
			t.ClaimedAt != nil && !t.ClaimedAt.After(now.Add(-constants.SyncClaimLease))
		if pendingDue || leaseExpired {
			cp := *t
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRetryAt.Before(due[j].NextRetryAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *fakeTaskRepo) MarkTaskDone(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id].Status = SyncStatusDone
	r.tasks[id].ClaimedBy = ""
	r.tasks[id].ClaimedAt = nil
	return nil
}

func (r *fakeTaskRepo) RescheduleTask(ctx context.Context, id uint64, attempts int, nextRetryAt time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tasks[id]
	t.Status = SyncStatusPending
	t.ClaimedBy = ""
	t.ClaimedAt = nil
	t.Attempts = attempts
	t.NextRetryAt = nextRetryAt
	t.LastError = lastError
	return nil
}

func (r *fakeTaskRepo) MarkTaskFailed(ctx context.Context, id uint64, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id].Status = SyncStatusFailed
	r.tasks[id].ClaimedBy = ""
	r.tasks[id].ClaimedAt = nil
	r.tasks[id].LastError = lastError
	return nil
}

func (r *fakeTaskRepo) taskCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

func (r *fakeTaskRepo) single() VipSyncTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		return *t
	}
	return VipSyncTask{}
}

// fakeStatCache 内存统计缓存
type fakeStatCache struct {
	mu    sync.Mutex
	stats *OrderStatistics
}

func (c *fakeStatCache) GetStatistics(ctx context.Context) (*OrderStatistics, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil {
		return nil, false, nil
	}
	cp := *c.stats
	return &cp, true, nil
}

func (c *fakeStatCache) SetStatistics(ctx context.Context, stats *OrderStatistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *stats
	c.stats = &cp
	return nil
}

// testEnv 组装好的被测对象集合
type testEnv struct {
	repo    *fakeOrderRepo
	tasks   *fakeTaskRepo
	users   *fakeUserClient
	payment *PaymentUsecase
	ent     *EntitlementUsecase
}

func newTestEnv() *testEnv {
	repo := newFakeOrderRepo()
	tasks := newFakeTaskRepo()
	users := &fakeUserClient{}
	logger := testLogger()
	ent := NewEntitlementUsecase(tasks, users, nil, logger)
	payment := NewPaymentUsecase(repo, fakeGateway{}, ent, fakeTx{}, nil, logger)
	return &testEnv{repo: repo, tasks: tasks, users: users, payment: payment, ent: ent}
}

// setNow 固定两个 usecase 的时钟
func (e *testEnv) setNow(t time.Time) {
	e.payment.now = func() time.Time { return t }
	e.ent.now = func() time.Time { return t }
}
