package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gkr185/vip-pay-service/internal/constants"
	bizErrors "github.com/gkr185/vip-pay-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateOrderNumber 订单号唯一约束冲突,由 data 层翻译后返回
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

// OrderStatus 订单状态
type OrderStatus int

const (
	// StatusPending 待支付
	StatusPending OrderStatus = 0
	// StatusPaid 已支付
	StatusPaid OrderStatus = 1
	// StatusFailed 支付失败 (网关回调失败)
	StatusFailed OrderStatus = 2
	// StatusCancelled 已取消 (用户主动取消)
	StatusCancelled OrderStatus = 3
	// StatusExpired 已过期 (超时未支付)
	StatusExpired OrderStatus = 4
)

// Name 状态中文名称
func (s OrderStatus) Name() string {
	switch s {
	case StatusPending:
		return "待支付"
	case StatusPaid:
		return "已支付"
	case StatusFailed:
		return "支付失败"
	case StatusCancelled:
		return "已取消"
	case StatusExpired:
		return "已过期"
	}
	return "未知"
}

// Terminal 是否为终态,终态订单不再变更
func (s OrderStatus) Terminal() bool {
	return s != StatusPending
}

// Valid 是否为已知状态
func (s OrderStatus) Valid() bool {
	return s >= StatusPending && s <= StatusExpired
}

// PlanType VIP套餐类型
type PlanType int

const (
	// PlanMonthly 月度会员
	PlanMonthly PlanType = 1
	// PlanQuarterly 季度会员
	PlanQuarterly PlanType = 2
	// PlanYearly 年度会员
	PlanYearly PlanType = 3
)

// Days 套餐对应的 VIP 天数
func (p PlanType) Days() int {
	switch p {
	case PlanMonthly:
		return 30
	case PlanQuarterly:
		return 90
	case PlanYearly:
		return 365
	}
	return 0
}

// Name 套餐中文名称
func (p PlanType) Name() string {
	switch p {
	case PlanMonthly:
		return "月度会员"
	case PlanQuarterly:
		return "季度会员"
	case PlanYearly:
		return "年度会员"
	}
	return "未知"
}

// Valid 是否为已知套餐
func (p PlanType) Valid() bool {
	return p == PlanMonthly || p == PlanQuarterly || p == PlanYearly
}

// PaymentMethod 支付方式
type PaymentMethod int

const (
	// MethodWechat 微信支付
	MethodWechat PaymentMethod = 0
	// MethodAlipay 支付宝
	MethodAlipay PaymentMethod = 1
	// MethodBankCard 银行卡
	MethodBankCard PaymentMethod = 2
)

// Name 支付方式中文名称
func (m PaymentMethod) Name() string {
	switch m {
	case MethodWechat:
		return "微信支付"
	case MethodAlipay:
		return "支付宝"
	case MethodBankCard:
		return "银行卡"
	}
	return "未知"
}

// Valid 是否为已知支付方式
func (m PaymentMethod) Valid() bool {
	return m == MethodWechat || m == MethodAlipay || m == MethodBankCard
}

// Order VIP购买订单
// 创建后 OrderNumber/PlanType/Amount/PaymentMethod/ExpireDeadline 不再变更,
// Status 只能通过 OrderRepo.TransitionStatus 按状态机前进
type Order struct {
	ID             uint64
	OrderNumber    string
	UserID         uint64
	PlanType       PlanType
	Amount         decimal.Decimal
	PaymentMethod  PaymentMethod
	Status         OrderStatus
	QRCodeURL      string
	CreateTime     time.Time
	PayTime        *time.Time
	ExpireDeadline time.Time
}

// OrderFilter 订单查询过滤条件
type OrderFilter struct {
	UserID        *uint64
	OrderNumber   string
	PlanType      *PlanType
	PaymentMethod *PaymentMethod
	Status        *OrderStatus
	StartTime     *time.Time
	EndTime       *time.Time
	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// OrderRepo 订单仓库接口
// TransitionStatus 是订单状态唯一的写入路径:
// 只有当前状态等于 from 时更新才生效,返回 false 表示已被其他写入方抢先处理
type OrderRepo interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id uint64) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)
	TransitionStatus(ctx context.Context, orderNumber string, from, to OrderStatus, payTime *time.Time) (bool, error)
	FindOverdueOrders(ctx context.Context, now time.Time) ([]*Order, error)
	ListOrders(ctx context.Context, filter *OrderFilter) ([]*Order, int64, error)
	ListUserOrders(ctx context.Context, userID uint64, page, size int) ([]*Order, int64, error)
	CountOrdersByStatus(ctx context.Context, status OrderStatus) (int64, error)
	CountOrdersByMethod(ctx context.Context, method PaymentMethod) (int64, error)
	CountOrdersByPlan(ctx context.Context, plan PlanType) (int64, error)
	SumOrderAmount(ctx context.Context, status *OrderStatus) (decimal.Decimal, error)
}

// PaymentUsecase 支付订单业务逻辑
type PaymentUsecase struct {
	repo        OrderRepo
	gateway     PaymentGateway
	entitlement *EntitlementUsecase
	tm          Transaction
	rs          *redsync.Redsync
	now         func() time.Time
	log         *log.Helper
}

// NewPaymentUsecase 创建支付订单业务逻辑实例
func NewPaymentUsecase(repo OrderRepo, gateway PaymentGateway, entitlement *EntitlementUsecase, tm Transaction, rs *redsync.Redsync, logger log.Logger) *PaymentUsecase {
	return &PaymentUsecase{
		repo:        repo,
		gateway:     gateway,
		entitlement: entitlement,
		tm:          tm,
		rs:          rs,
		now:         time.Now,
		log:         log.NewHelper(logger),
	}
}

// CreateOrder 创建待支付订单并生成支付二维码地址
func (uc *PaymentUsecase) CreateOrder(ctx context.Context, userID uint64, plan PlanType, amount decimal.Decimal, method PaymentMethod) (*Order, error) {
	if userID == 0 {
		return nil, bizErrors.ErrInvalidParameter("用户ID不能为空")
	}
	if !plan.Valid() {
		return nil, bizErrors.ErrInvalidParameter("套餐类型无效")
	}
	if !method.Valid() {
		return nil, bizErrors.ErrInvalidParameter("支付方式无效")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, bizErrors.ErrInvalidParameter("支付金额必须大于0")
	}

	now := uc.now().UTC()
	var lastErr error
	for i := 0; i < constants.OrderNumberMaxRetries; i++ {
		orderNumber := generateOrderNumber()
		order := &Order{
			OrderNumber:    orderNumber,
			UserID:         userID,
			PlanType:       plan,
			Amount:         amount,
			PaymentMethod:  method,
			Status:         StatusPending,
			QRCodeURL:      uc.gateway.QRCodeURL(orderNumber),
			CreateTime:     now,
			ExpireDeadline: now.Add(constants.OrderExpireWindow),
		}
		err := uc.repo.CreateOrder(ctx, order)
		if err == nil {
			uc.log.Infof("Created order %s: user=%d, plan=%s, amount=%s, method=%s",
				orderNumber, userID, plan.Name(), amount.String(), method.Name())
			return order, nil
		}
		if errors.Is(err, ErrDuplicateOrderNumber) {
			uc.log.Warnf("Order number collision: %s, retrying", orderNumber)
			lastErr = err
			continue
		}
		uc.log.Errorf("Failed to create order for user %d: %v", userID, err)
		return nil, bizErrors.ErrOrderCreateFailed("订单创建失败")
	}
	uc.log.Errorf("Order number generation exhausted retries: %v", lastErr)
	return nil, bizErrors.ErrOrderCreateFailed("订单号生成冲突,请重试")
}

// GetOrder 获取订单详情
func (uc *PaymentUsecase) GetOrder(ctx context.Context, id uint64) (*Order, error) {
	return uc.repo.GetOrderByID(ctx, id)
}

// GetOrderByNumber 根据订单号获取订单
func (uc *PaymentUsecase) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return uc.repo.GetOrderByNumber(ctx, orderNumber)
}

// CancelOrder 用户主动取消订单,只有待支付订单可以取消
func (uc *PaymentUsecase) CancelOrder(ctx context.Context, orderID uint64) (*Order, error) {
	order, err := uc.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ok, err := uc.repo.TransitionStatus(ctx, order.OrderNumber, StatusPending, StatusCancelled, nil)
	if err != nil {
		uc.log.Errorf("Failed to cancel order %s: %v", order.OrderNumber, err)
		return nil, err
	}
	if !ok {
		return nil, bizErrors.ErrInvalidStateTransition("只能取消待支付订单")
	}

	uc.log.Infof("Order %s cancelled by user", order.OrderNumber)
	order.Status = StatusCancelled
	return order, nil
}

// generateOrderNumber 生成16位订单号
func generateOrderNumber() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:constants.OrderNumberLength]
}
