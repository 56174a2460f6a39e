package service

import (
	"time"

	"github.com/gkr185/vip-pay-service/internal/biz"

	"github.com/shopspring/decimal"
)

// GenerateQRCodeRequest 创建订单请求
// 必填字段用指针区分缺失和零值 (微信支付的编码是 0)
type GenerateQRCodeRequest struct {
	UserID        *uint64          `json:"userId"`
	PlanID        *int             `json:"planId"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod *int             `json:"paymentMethod"`
}

// GenerateQRCodeReply 创建订单响应
type GenerateQRCodeReply struct {
	OrderID    string          `json:"orderId"`
	QRCodeURL  string          `json:"qrCodeUrl"`
	Amount     decimal.Decimal `json:"amount"`
	ExpireTime time.Time       `json:"expireTime"`
}

// PaymentStatusReply 支付状态查询响应
type PaymentStatusReply struct {
	OrderID    string          `json:"orderId"`
	Status     int             `json:"status"`
	StatusName string          `json:"statusName"`
	Amount     decimal.Decimal `json:"amount"`
}

// CallbackRequest 支付网关回调请求
type CallbackRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// CallbackReply 回调应答,订单确认为终态后始终应答成功以终止网关重发
type CallbackReply struct {
	Message string `json:"message"`
}

// OrderResponse 订单详情
type OrderResponse struct {
	ID                uint64          `json:"id"`
	UserID            uint64          `json:"userId"`
	OrderNumber       string          `json:"orderNumber"`
	VipType           int             `json:"vipType"`
	VipTypeName       string          `json:"vipTypeName"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethod     int             `json:"paymentMethod"`
	PaymentMethodName string          `json:"paymentMethodName"`
	Status            int             `json:"status"`
	StatusName        string          `json:"statusName"`
	QRCodeURL         string          `json:"qrCodeUrl"`
	CreateTime        time.Time       `json:"createTime"`
	PayTime           *time.Time      `json:"payTime,omitempty"`
	ExpireTime        time.Time       `json:"expireTime"`
}

// OrderSearchRequest 订单分页查询请求
type OrderSearchRequest struct {
	UserID        *uint64    `json:"userId"`
	OrderNumber   string     `json:"orderNumber"`
	VipType       *int       `json:"vipType"`
	PaymentMethod *int       `json:"paymentMethod"`
	Status        *int       `json:"status"`
	StartTime     *time.Time `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
	SortBy        string     `json:"sortBy"`
	SortDirection string     `json:"sortDirection"`
}

// OrderPageReply 订单分页查询响应
type OrderPageReply struct {
	Items []*OrderResponse `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

// SweepReply 过期订单清理响应
type SweepReply struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}

func toOrderResponse(order *biz.Order) *OrderResponse {
	return &OrderResponse{
		ID:                order.ID,
		UserID:            order.UserID,
		OrderNumber:       order.OrderNumber,
		VipType:           int(order.PlanType),
		VipTypeName:       order.PlanType.Name(),
		Amount:            order.Amount,
		PaymentMethod:     int(order.PaymentMethod),
		PaymentMethodName: order.PaymentMethod.Name(),
		Status:            int(order.Status),
		StatusName:        order.Status.Name(),
		QRCodeURL:         order.QRCodeURL,
		CreateTime:        order.CreateTime,
		PayTime:           order.PayTime,
		ExpireTime:        order.ExpireDeadline,
	}
}

func toOrderResponses(orders []*biz.Order) []*OrderResponse {
	items := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		items[i] = toOrderResponse(order)
	}
	return items
}
