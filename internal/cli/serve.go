package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/api/handler"
	"shift-clock/backend/internal/api/router"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/notify"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/internal/service"
	"shift-clock/backend/pkg/clock"
	"shift-clock/backend/pkg/jwt"
	"shift-clock/backend/pkg/redis"
)

// NewServeCommand 创建 serve 命令
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var skipBootstrap bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, skipBootstrap, cmd)
		},
	}

	cmd.Flags().BoolVar(&skipBootstrap, "skip-bootstrap", false, "启动时跳过预置数据初始化")

	return cmd
}

func runServe(opts *RootOptions, skipBootstrap bool, cmd *cobra.Command) error {
	// 1. 配置、日志、数据库
	rt, err := openRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, logger := rt.cfg, rt.logger
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2. 数据库迁移
	if err := rt.migrate(); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 3. 连接 Redis（可选：连接失败时降级为单实例内存模式）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，黑名单与跨实例广播将不可用", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 4. 事件分发
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub(logger)
	var (
		publisher notify.Publisher = hub
		fanout    *notify.RedisFanout
	)
	if rdb != nil {
		fanout = notify.NewRedisFanout(hub, rdb, logger)
		publisher = fanout
		go func() {
			if err := fanout.Run(ctx); err != nil {
				logger.Error("Redis 事件订阅中断", zap.Error(err))
			}
		}()
	}

	// 5. 依赖注入: Repository → Service → Handler
	clk := clock.System{}
	kioskLimiter, adminLimiter := newLimiters(&cfg.Clock, rdb, clk)

	deps := service.Deps{
		Config:       cfg,
		Repo:         repository.NewRepository(rt.db),
		JWT:          jwt.NewManager(&cfg.Auth),
		KioskLimiter: kioskLimiter,
		AdminLimiter: adminLimiter,
		Publisher:    publisher,
		Clock:        clk,
		Logger:       logger,
	}
	if rdb != nil {
		deps.Blacklist = rdb
	}
	svc := service.NewService(deps)

	if !skipBootstrap {
		if err := runBootstrap(ctx, svc.Bootstrap, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
	}

	h := handler.NewHandler(cfg, svc, hub)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, deps.JWT, rdb, deps.Repo, logger)

	// 7. 启动 HTTP 服务器（SSE 长连接，不设置写超时）
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// SSE 长连接会拖住 Shutdown，关闭订阅让其自行返回
	srv.RegisterOnShutdown(hub.Close)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 8. 监听系统信号，优雅关闭
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("收到关闭信号，开始优雅关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	if fanout != nil {
		fanout.Wait()
	}

	logger.Info("服务器已关闭")
	return nil
}

// newLimiters 创建终端与管理端的 PIN 失败锁定器
// 启用 Redis 时多实例共享计数，否则使用进程内计数
func newLimiters(cfg *config.ClockConfig, rdb *redis.Client, clk clock.Clock) (lockout.Limiter, lockout.Limiter) {
	policy := lockout.Policy{MaxFailures: cfg.PINMaxFailures, LockDuration: cfg.PINLockDuration}
	if rdb != nil {
		return lockout.NewRedisLimiter(rdb, "kiosk", policy, clk),
			lockout.NewRedisLimiter(rdb, "admin", policy, clk)
	}
	return lockout.NewMemoryLimiter(policy, clk), lockout.NewMemoryLimiter(policy, clk)
}
