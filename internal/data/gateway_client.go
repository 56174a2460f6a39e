package data

import (
	"strings"

	"github.com/gkr185/vip-pay-service/internal/biz"
	"github.com/gkr185/vip-pay-service/internal/conf"
)

// qrcodeGateway 支付网关客户端
// 二维码地址是订单号的确定性函数,真实接入支付平台时替换此实现
type qrcodeGateway struct {
	baseURL string
}

// NewPaymentGateway 创建支付网关客户端
func NewPaymentGateway(c *conf.Bootstrap) biz.PaymentGateway {
	base := "https://example.com"
	if c != nil && c.Client != nil && c.Client.PayGateway != nil && c.Client.PayGateway.BaseUrl != "" {
		base = strings.TrimRight(c.Client.PayGateway.BaseUrl, "/")
	}
	return &qrcodeGateway{baseURL: base}
}

// QRCodeURL 生成支付二维码地址
func (g *qrcodeGateway) QRCodeURL(orderNumber string) string {
	return g.baseURL + "/pay/" + orderNumber
}
