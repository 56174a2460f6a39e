package server

import (
	"encoding/json"
	stdhttp "net/http"
	"strconv"

	"github.com/gkr185/vip-pay-service/internal/conf"
	"github.com/gkr185/vip-pay-service/internal/constants"
	bizErrors "github.com/gkr185/vip-pay-service/internal/errors"
	"github.com/gkr185/vip-pay-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, svc *service.PaymentService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, svc)

	// 注册健康检查端点
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, map[string]string{"status": "UP", "service": "vip-pay-service"})
	})

	return srv
}

func registerRoutes(srv *http.Server, svc *service.PaymentService) {
	r := srv.Route("/api/payment")

	r.POST("/generate-qrcode", func(ctx http.Context) error {
		var req service.GenerateQRCodeRequest
		if err := ctx.Bind(&req); err != nil {
			return bizErrors.ErrInvalidParameter("请求体解析失败")
		}
		reply, err := svc.GenerateQRCode(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/status/{orderId}", func(ctx http.Context) error {
		reply, err := svc.CheckPaymentStatus(ctx, ctx.Vars().Get("orderId"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/callback", func(ctx http.Context) error {
		var req service.CallbackRequest
		if err := ctx.Bind(&req); err != nil {
			return bizErrors.ErrInvalidParameter("请求体解析失败")
		}
		reply, err := svc.HandleCallback(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/orders/search", func(ctx http.Context) error {
		var req service.OrderSearchRequest
		if err := ctx.Bind(&req); err != nil {
			return bizErrors.ErrInvalidParameter("请求体解析失败")
		}
		reply, err := svc.SearchOrders(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/orders/statistics", func(ctx http.Context) error {
		reply, err := svc.GetOrderStatistics(ctx)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/orders/by-number/{orderNumber}", func(ctx http.Context) error {
		reply, err := svc.GetOrderByNumber(ctx, ctx.Vars().Get("orderNumber"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/orders/{orderId}", func(ctx http.Context) error {
		id, err := parseID(ctx.Vars().Get("orderId"))
		if err != nil {
			return err
		}
		reply, err := svc.GetOrderDetail(ctx, id)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.PUT("/orders/{orderId}/cancel", func(ctx http.Context) error {
		id, err := parseID(ctx.Vars().Get("orderId"))
		if err != nil {
			return err
		}
		reply, err := svc.CancelOrder(ctx, id)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/orders/cancel-expired", func(ctx http.Context) error {
		reply, err := svc.CancelExpiredOrders(ctx)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/users/{userId}/orders", func(ctx http.Context) error {
		userID, err := parseID(ctx.Vars().Get("userId"))
		if err != nil {
			return err
		}
		page := parseIntOrDefault(ctx.Query().Get("page"), 1)
		size := parseIntOrDefault(ctx.Query().Get("size"), constants.DefaultPageSize)
		reply, err := svc.GetUserOrders(ctx, userID, page, size)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.DELETE("/users/{userId}/vip", func(ctx http.Context) error {
		userID, err := parseID(ctx.Vars().Get("userId"))
		if err != nil {
			return err
		}
		if err := svc.RevokeUserVip(ctx, userID); err != nil {
			return err
		}
		return ctx.Result(200, map[string]string{"message": "ok"})
	})
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, bizErrors.ErrInvalidParameter("ID格式无效")
	}
	return id, nil
}

func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = mapErrorStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func mapErrorStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	switch code {
	case bizErrors.ErrCodeOrderNotFound:
		return stdhttp.StatusNotFound
	case bizErrors.ErrCodeInvalidStateTransition:
		return stdhttp.StatusConflict
	case bizErrors.ErrCodeInvalidParameter:
		return stdhttp.StatusBadRequest
	}
	if code >= 140000 && code < 150000 {
		return stdhttp.StatusInternalServerError
	}
	return stdhttp.StatusInternalServerError
}
