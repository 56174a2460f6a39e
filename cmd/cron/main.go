package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gkr185/vip-pay-service/internal/conf"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 初始化配置
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	// 初始化应用
	app, cleanup, err := wireApp(&bc)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	expireSpec := "0 */10 * * * *"
	syncRetrySpec := "0 * * * * *"
	if bc.Sweeper != nil {
		if bc.Sweeper.ExpireSpec != "" {
			expireSpec = bc.Sweeper.ExpireSpec
		}
		if bc.Sweeper.SyncRetrySpec != "" {
			syncRetrySpec = bc.Sweeper.SyncRetrySpec
		}
	}

	// 创建定时任务调度器（支持秒级调度）
	cronScheduler := cron.New(cron.WithSeconds())

	// 1. 过期订单清理 - 每10分钟执行
	_, err = cronScheduler.AddFunc(expireSpec, func() {
		log.Println("[CRON] Starting expired order sweep...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := app.payment.CancelExpiredOrdersWithLock(ctx)
		if err != nil {
			log.Printf("[CRON] Error sweeping expired orders: %v", err)
		} else {
			log.Printf("[CRON] Expired order sweep done: expired=%d, skipped=%d", result.Expired, result.Skipped)
		}
	})
	if err != nil {
		log.Printf("Failed to add expired order sweep job: %v", err)
	}

	// 2. VIP同步重试 - 每分钟执行
	_, err = cronScheduler.AddFunc(syncRetrySpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := app.entitlement.ProcessPendingSyncsWithLock(ctx)
		if err != nil {
			log.Printf("[CRON] Error retrying vip syncs: %v", err)
			return
		}
		if result.Done > 0 || result.Rescheduled > 0 || result.Failed > 0 {
			log.Printf("[CRON] Vip sync retry done: done=%d, rescheduled=%d, failed=%d",
				result.Done, result.Rescheduled, result.Failed)
		}
	})
	if err != nil {
		log.Printf("Failed to add vip sync retry job: %v", err)
	}

	// 启动定时任务
	cronScheduler.Start()
	log.Println("========================================")
	log.Println("Cron jobs started successfully")
	log.Println("Scheduled jobs:")
	log.Printf("  - Expired order sweep: %s", expireSpec)
	log.Printf("  - Vip sync retry:      %s", syncRetrySpec)
	log.Println("========================================")

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gracefully...")

	// 停止定时任务
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		log.Println("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		log.Println("Cron jobs forced to stop after timeout")
	}
}
