package service

import (
	"context"

	"github.com/gkr185/vip-pay-service/internal/biz"
	bizErrors "github.com/gkr185/vip-pay-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// PaymentService 支付服务
type PaymentService struct {
	payment     *biz.PaymentUsecase
	query       *biz.OrderQueryUsecase
	entitlement *biz.EntitlementUsecase
	log         *log.Helper
}

// NewPaymentService 创建支付服务实例
func NewPaymentService(payment *biz.PaymentUsecase, query *biz.OrderQueryUsecase, entitlement *biz.EntitlementUsecase, logger log.Logger) *PaymentService {
	return &PaymentService{
		payment:     payment,
		query:       query,
		entitlement: entitlement,
		log:         log.NewHelper(logger),
	}
}

// GenerateQRCode 创建待支付订单并返回支付二维码
func (s *PaymentService) GenerateQRCode(ctx context.Context, req *GenerateQRCodeRequest) (*GenerateQRCodeReply, error) {
	if req.UserID == nil {
		return nil, bizErrors.ErrInvalidParameter("用户ID不能为空")
	}
	if req.PlanID == nil {
		return nil, bizErrors.ErrInvalidParameter("套餐ID不能为空")
	}
	if req.Amount == nil {
		return nil, bizErrors.ErrInvalidParameter("支付金额不能为空")
	}
	if req.PaymentMethod == nil {
		return nil, bizErrors.ErrInvalidParameter("支付方式不能为空")
	}

	order, err := s.payment.CreateOrder(ctx, *req.UserID, biz.PlanType(*req.PlanID), *req.Amount, biz.PaymentMethod(*req.PaymentMethod))
	if err != nil {
		return nil, err
	}

	return &GenerateQRCodeReply{
		OrderID:    order.OrderNumber,
		QRCodeURL:  order.QRCodeURL,
		Amount:     order.Amount,
		ExpireTime: order.ExpireDeadline,
	}, nil
}

// CheckPaymentStatus 查询订单支付状态
func (s *PaymentService) CheckPaymentStatus(ctx context.Context, orderNumber string) (*PaymentStatusReply, error) {
	if orderNumber == "" {
		return nil, bizErrors.ErrInvalidParameter("订单号不能为空")
	}
	order, err := s.payment.CheckPaymentStatus(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return &PaymentStatusReply{
		OrderID:    order.OrderNumber,
		Status:     int(order.Status),
		StatusName: order.Status.Name(),
		Amount:     order.Amount,
	}, nil
}

// HandleCallback 处理支付网关回调
func (s *PaymentService) HandleCallback(ctx context.Context, req *CallbackRequest) (*CallbackReply, error) {
	if req.OrderID == "" || req.Status == "" {
		return nil, bizErrors.ErrInvalidParameter("订单号和支付状态不能为空")
	}
	if err := s.payment.HandlePaymentCallback(ctx, req.OrderID, req.Status); err != nil {
		return nil, err
	}
	return &CallbackReply{Message: "ok"}, nil
}

// SearchOrders 分页查询订单列表
func (s *PaymentService) SearchOrders(ctx context.Context, req *OrderSearchRequest) (*OrderPageReply, error) {
	filter := &biz.OrderFilter{
		UserID:        req.UserID,
		OrderNumber:   req.OrderNumber,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Page:          req.Page,
		Size:          req.Size,
		SortBy:        req.SortBy,
		SortDirection: req.SortDirection,
	}
	if req.VipType != nil {
		p := biz.PlanType(*req.VipType)
		filter.PlanType = &p
	}
	if req.PaymentMethod != nil {
		m := biz.PaymentMethod(*req.PaymentMethod)
		filter.PaymentMethod = &m
	}
	if req.Status != nil {
		st := biz.OrderStatus(*req.Status)
		if !st.Valid() {
			return nil, bizErrors.ErrInvalidParameter("订单状态无效")
		}
		filter.Status = &st
	}

	orders, total, err := s.query.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderPageReply{
		Items: toOrderResponses(orders),
		Total: total,
		Page:  filter.Page,
		Size:  filter.Size,
	}, nil
}

// GetOrderDetail 获取订单详情
func (s *PaymentService) GetOrderDetail(ctx context.Context, orderID uint64) (*OrderResponse, error) {
	order, err := s.payment.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// GetOrderByNumber 根据订单号获取订单详情
func (s *PaymentService) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	order, err := s.payment.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// CancelOrder 取消待支付订单
func (s *PaymentService) CancelOrder(ctx context.Context, orderID uint64) (*OrderResponse, error) {
	order, err := s.payment.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// GetOrderStatistics 获取订单统计
func (s *PaymentService) GetOrderStatistics(ctx context.Context) (*biz.OrderStatistics, error) {
	return s.query.GetOrderStatistics(ctx)
}

// GetUserOrders 查询用户订单列表
func (s *PaymentService) GetUserOrders(ctx context.Context, userID uint64, page, size int) (*OrderPageReply, error) {
	if userID == 0 {
		return nil, bizErrors.ErrInvalidParameter("用户ID不能为空")
	}
	orders, total, err := s.query.ListUserOrders(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}
	return &OrderPageReply{
		Items: toOrderResponses(orders),
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

// CancelExpiredOrders 手动触发过期订单清理,与定时任务同一逻辑
func (s *PaymentService) CancelExpiredOrders(ctx context.Context) (*SweepReply, error) {
	result, err := s.payment.CancelExpiredOrdersWithLock(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepReply{Expired: result.Expired, Skipped: result.Skipped}, nil
}

// RevokeUserVip 取消用户VIP状态 (管理端操作,走同步任务重试保障)
func (s *PaymentService) RevokeUserVip(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return bizErrors.ErrInvalidParameter("用户ID不能为空")
	}
	return s.entitlement.Revoke(ctx, userID)
}
