package constants

import "time"

// 订单相关常量
const (
	// OrderExpireWindow 订单支付有效期 (创建后30分钟未支付即过期)
	OrderExpireWindow = 30 * time.Minute
	// OrderNumberLength 订单号长度
	OrderNumberLength = 16
	// OrderNumberMaxRetries 订单号冲突最大重试次数
	OrderNumberMaxRetries = 3
)

// 回调相关常量
const (
	// CallbackResultSuccess 支付网关回调成功标识
	CallbackResultSuccess = "SUCCESS"
)

// 分页相关常量
const (
	// DefaultPageSize 默认分页大小
	DefaultPageSize = 10
	// MaxPageSize 最大分页大小
	MaxPageSize = 100
)

// 缓存相关常量
const (
	// StatisticsCacheKey 订单统计缓存 key
	StatisticsCacheKey = "vip_pay:order_statistics"
	// StatisticsCacheExpiration 订单统计缓存过期时间
	StatisticsCacheExpiration = time.Minute
)

// 分布式锁相关常量
const (
	// SweepLockKey 过期订单清理锁
	SweepLockKey = "vip_pay:lock:cancel_expired_orders"
	// SweepLockExpiration 过期订单清理锁过期时间
	SweepLockExpiration = 5 * time.Minute
	// SyncLockKey VIP同步重试锁
	SyncLockKey = "vip_pay:lock:vip_sync_retry"
	// SyncLockExpiration VIP同步重试锁过期时间
	SyncLockExpiration = 5 * time.Minute
	// LockRetries 锁重试次数 (只尝试一次,失败说明其他实例正在处理)
	LockRetries = 1
)

// VIP同步重试相关常量
const (
	// SyncRetryBaseDelay 同步重试基础间隔
	SyncRetryBaseDelay = time.Minute
	// SyncRetryMaxDelay 同步重试最大间隔
	SyncRetryMaxDelay = 30 * time.Minute
	// MaxSyncAttempts 同步最大尝试次数,超过后标记失败等待人工处理
	MaxSyncAttempts = 8
	// SyncClaimBatchSize 每轮认领的同步任务数量
	SyncClaimBatchSize = 50
	// SyncClaimLease 认领租约时长,worker 认领后超过该时长未写回终态
	// 视为进程崩溃,任务可被重新认领
	SyncClaimLease = 10 * time.Minute
)
