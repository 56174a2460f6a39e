package data

import (
	"context"
	"errors"
	"time"

	"github.com/gkr185/vip-pay-service/internal/biz"
	bizErrors "github.com/gkr185/vip-pay-service/internal/errors"
	"github.com/gkr185/vip-pay-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// orderRepo 订单仓库实现
type orderRepo struct {
	data *Data
	log  *log.Helper
}

// NewOrderRepo 创建订单仓库
func NewOrderRepo(data *Data, logger log.Logger) biz.OrderRepo {
	return &orderRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateOrder 创建订单,订单号唯一约束冲突翻译为 biz.ErrDuplicateOrderNumber
func (r *orderRepo) CreateOrder(ctx context.Context, order *biz.Order) error {
	m := toOrderModel(order)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return biz.ErrDuplicateOrderNumber
		}
		r.log.Errorf("Failed to create order %s: %v", order.OrderNumber, err)
		return err
	}
	order.ID = m.ID
	return nil
}

// GetOrderByID 根据主键获取订单
func (r *orderRepo) GetOrderByID(ctx context.Context, id uint64) (*biz.Order, error) {
	var m model.VipOrder
	if err := r.data.DB(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizErrors.ErrOrderNotFound("")
		}
		r.log.Errorf("Failed to get order %d: %v", id, err)
		return nil, err
	}
	return toBizOrder(&m), nil
}

// GetOrderByNumber 根据订单号获取订单
func (r *orderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*biz.Order, error) {
	var m model.VipOrder
	if err := r.data.DB(ctx).First(&m, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizErrors.ErrOrderNotFound(orderNumber)
		}
		r.log.Errorf("Failed to get order %s: %v", orderNumber, err)
		return nil, err
	}
	return toBizOrder(&m), nil
}

// TransitionStatus 条件状态更新
// WHERE 条件带上期望的当前状态,存储层保证并发写入方中只有一个生效;
// RowsAffected=0 表示状态已被其他写入方变更,返回 false 不报错
func (r *orderRepo) TransitionStatus(ctx context.Context, orderNumber string, from, to biz.OrderStatus, payTime *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": int(to)}
	if payTime != nil {
		updates["pay_time"] = payTime
	}
	res := r.data.DB(ctx).Model(&model.VipOrder{}).
		Where("order_number = ? AND status = ?", orderNumber, int(from)).
		Updates(updates)
	if res.Error != nil {
		r.log.Errorf("Failed to transition order %s from %d to %d: %v", orderNumber, from, to, res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindOverdueOrders 查询超过支付期限且仍待支付的订单
func (r *orderRepo) FindOverdueOrders(ctx context.Context, now time.Time) ([]*biz.Order, error) {
	var models []model.VipOrder
	if err := r.data.DB(ctx).
		Where("status = ? AND expire_deadline < ?", int(biz.StatusPending), now).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to find overdue orders: %v", err)
		return nil, err
	}
	orders := make([]*biz.Order, len(models))
	for i := range models {
		orders[i] = toBizOrder(&models[i])
	}
	return orders, nil
}

// sortColumns 允许排序的字段白名单
var sortColumns = map[string]string{
	"createTime": "create_time",
	"payTime":    "pay_time",
	"amount":     "amount",
}

// ListOrders 按条件分页查询订单
func (r *orderRepo) ListOrders(ctx context.Context, filter *biz.OrderFilter) ([]*biz.Order, int64, error) {
	q := r.data.DB(ctx).Model(&model.VipOrder{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.OrderNumber != "" {
		q = q.Where("order_number LIKE ?", "%"+filter.OrderNumber+"%")
	}
	if filter.PlanType != nil {
		q = q.Where("plan_type = ?", int(*filter.PlanType))
	}
	if filter.PaymentMethod != nil {
		q = q.Where("payment_method = ?", int(*filter.PaymentMethod))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", int(*filter.Status))
	}
	if filter.StartTime != nil {
		q = q.Where("create_time >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		q = q.Where("create_time <= ?", *filter.EndTime)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count orders: %v", err)
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "create_time"
	}
	direction := "DESC"
	if filter.SortDirection == "ASC" || filter.SortDirection == "asc" {
		direction = "ASC"
	}

	var models []model.VipOrder
	offset := (filter.Page - 1) * filter.Size
	if err := q.Order(column + " " + direction).
		Limit(filter.Size).
		Offset(offset).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list orders: %v", err)
		return nil, 0, err
	}

	orders := make([]*biz.Order, len(models))
	for i := range models {
		orders[i] = toBizOrder(&models[i])
	}
	return orders, total, nil
}

// ListUserOrders 查询用户订单,按创建时间倒序
func (r *orderRepo) ListUserOrders(ctx context.Context, userID uint64, page, size int) ([]*biz.Order, int64, error) {
	uid := userID
	return r.ListOrders(ctx, &biz.OrderFilter{
		UserID: &uid,
		Page:   page,
		Size:   size,
	})
}

// CountOrdersByStatus 按状态统计订单数
func (r *orderRepo) CountOrdersByStatus(ctx context.Context, status biz.OrderStatus) (int64, error) {
	var total int64
	err := r.data.DB(ctx).Model(&model.VipOrder{}).
		Where("status = ?", int(status)).Count(&total).Error
	return total, err
}

// CountOrdersByMethod 按支付方式统计订单数
func (r *orderRepo) CountOrdersByMethod(ctx context.Context, method biz.PaymentMethod) (int64, error) {
	var total int64
	err := r.data.DB(ctx).Model(&model.VipOrder{}).
		Where("payment_method = ?", int(method)).Count(&total).Error
	return total, err
}

// CountOrdersByPlan 按套餐类型统计订单数
func (r *orderRepo) CountOrdersByPlan(ctx context.Context, plan biz.PlanType) (int64, error) {
	var total int64
	err := r.data.DB(ctx).Model(&model.VipOrder{}).
		Where("plan_type = ?", int(plan)).Count(&total).Error
	return total, err
}

// SumOrderAmount 订单金额合计,status 为 nil 时统计全部订单
func (r *orderRepo) SumOrderAmount(ctx context.Context, status *biz.OrderStatus) (decimal.Decimal, error) {
	q := r.data.DB(ctx).Model(&model.VipOrder{}).Select("SUM(amount)")
	if status != nil {
		q = q.Where("status = ?", int(*status))
	}
	var sum decimal.NullDecimal
	if err := q.Scan(&sum).Error; err != nil {
		r.log.Errorf("Failed to sum order amount: %v", err)
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func toOrderModel(order *biz.Order) *model.VipOrder {
	return &model.VipOrder{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		PlanType:       int(order.PlanType),
		Amount:         order.Amount,
		PaymentMethod:  int(order.PaymentMethod),
		Status:         int(order.Status),
		QRCodeURL:      order.QRCodeURL,
		CreateTime:     order.CreateTime,
		PayTime:        order.PayTime,
		ExpireDeadline: order.ExpireDeadline,
	}
}

func toBizOrder(m *model.VipOrder) *biz.Order {
	return &biz.Order{
		ID:             m.ID,
		OrderNumber:    m.OrderNumber,
		UserID:         m.UserID,
		PlanType:       biz.PlanType(m.PlanType),
		Amount:         m.Amount,
		PaymentMethod:  biz.PaymentMethod(m.PaymentMethod),
		Status:         biz.OrderStatus(m.Status),
		QRCodeURL:      m.QRCodeURL,
		CreateTime:     m.CreateTime,
		PayTime:        m.PayTime,
		ExpireDeadline: m.ExpireDeadline,
	}
}
