package biz

// PaymentGateway 支付网关客户端接口 (防腐层)
// 二维码地址由订单号唯一确定,无副作用,重复调用安全
type PaymentGateway interface {
	QRCodeURL(orderNumber string) string
}
