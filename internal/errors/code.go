package errors

import (
	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// 支付服务错误码定义
// 错误码格式：SSMMEE (6位数字)，其中 SS=14 表示 vip-pay-service
// 模块划分：
//   01: 订单模块
//   02: VIP同步模块

// 订单模块 (140100-140199)
const (
	// ErrCodeOrderNotFound 订单不存在错误
	ErrCodeOrderNotFound = 140101
	// ErrCodeInvalidParameter 请求参数无效错误
	ErrCodeInvalidParameter = 140102
	// ErrCodeOrderCreateFailed 订单创建失败错误
	ErrCodeOrderCreateFailed = 140103
	// ErrCodeInvalidStateTransition 订单状态不允许该操作错误
	ErrCodeInvalidStateTransition = 140104
)

// VIP同步模块 (140200-140299)
const (
	// ErrCodeVipSyncFailed 用户服务VIP状态同步失败 (内部错误,不暴露给支付方)
	ErrCodeVipSyncFailed = 140201
)

// ErrOrderNotFound 订单不存在
func ErrOrderNotFound(orderNumber string) *kerrors.Error {
	return kerrors.New(ErrCodeOrderNotFound, "ORDER_NOT_FOUND", "订单不存在: "+orderNumber)
}

// ErrInvalidParameter 请求参数无效
func ErrInvalidParameter(message string) *kerrors.Error {
	return kerrors.New(ErrCodeInvalidParameter, "INVALID_PARAMETER", message)
}

// ErrOrderCreateFailed 订单创建失败
func ErrOrderCreateFailed(message string) *kerrors.Error {
	return kerrors.New(ErrCodeOrderCreateFailed, "ORDER_CREATE_FAILED", message)
}

// ErrInvalidStateTransition 订单当前状态不允许该操作
func ErrInvalidStateTransition(message string) *kerrors.Error {
	return kerrors.New(ErrCodeInvalidStateTransition, "INVALID_STATE_TRANSITION", message)
}

// IsOrderNotFound 判断是否为订单不存在错误
func IsOrderNotFound(err error) bool {
	return kerrors.Code(err) == ErrCodeOrderNotFound
}

// IsInvalidParameter 判断是否为参数无效错误
func IsInvalidParameter(err error) bool {
	return kerrors.Code(err) == ErrCodeInvalidParameter
}

// IsInvalidStateTransition 判断是否为状态冲突错误
func IsInvalidStateTransition(err error) bool {
	return kerrors.Code(err) == ErrCodeInvalidStateTransition
}
