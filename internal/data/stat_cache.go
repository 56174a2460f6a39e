package data

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gkr185/vip-pay-service/internal/biz"
	"github.com/gkr185/vip-pay-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// statisticsCache 订单统计 redis 缓存实现
type statisticsCache struct {
	data *Data
	log  *log.Helper
}

// NewStatisticsCache 创建订单统计缓存
func NewStatisticsCache(data *Data, logger log.Logger) biz.StatisticsCache {
	return &statisticsCache{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetStatistics 读取缓存的统计结果,未命中返回 (nil, false, nil)
func (c *statisticsCache) GetStatistics(ctx context.Context) (*biz.OrderStatistics, bool, error) {
	val, err := c.data.rdb.Get(ctx, constants.StatisticsCacheKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var stats biz.OrderStatistics
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		// 缓存内容损坏按未命中处理
		c.log.Warnf("Corrupted statistics cache entry: %v", err)
		return nil, false, nil
	}
	return &stats, true, nil
}

// SetStatistics 写入统计结果缓存
func (c *statisticsCache) SetStatistics(ctx context.Context, stats *biz.OrderStatistics) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.data.rdb.Set(ctx, constants.StatisticsCacheKey, payload, constants.StatisticsCacheExpiration).Err()
}
