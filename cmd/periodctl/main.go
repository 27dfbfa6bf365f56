// periodctl 学期管理命令行：创建当前学期、回填历史评分、切换活动学期
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"competencias/backend/config"
	"competencias/backend/internal/repository"
	"competencias/backend/internal/service"
	"competencias/backend/pkg/database"
	applogger "competencias/backend/pkg/logger"
	"competencias/backend/pkg/redis"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// app 一次命令执行所需的依赖
type app struct {
	cfg       *config.Config
	migration *database.MigrationStatus
	periods   service.PeriodService
	logger    *zap.Logger
	closers   []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
	_ = a.logger.Sync()
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "periodctl",
		Short:         "学期管理工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	open := func() (*app, error) { return bootstrap(configPath) }

	root.AddCommand(
		currentCmd(open),
		backfillCmd(open),
		listCmd(open),
		activateCmd(open),
		resolveCmd(open),
		migrateCmd(open),
	)
	return root
}

// bootstrap 加载配置、连接数据库并装配学期服务；Redis 可选，仅用于让报表缓存失效
func bootstrap(configPath string) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log, "periodctl")
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	a.migration, err = database.RunMigrations(sqlDB, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	var cache service.ReportCache
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 不可用，报表缓存不会失效", zap.Error(err))
		} else {
			cache = rdb
			a.closers = append(a.closers, rdb.Close)
		}
	}

	svc, err := service.NewService(cfg, repository.NewRepository(db), cache, nil, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.periods = svc.Period
	return a, nil
}

// printJSON 以缩进 JSON 输出结果，便于脚本处理
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run 打开依赖、执行 fn 并释放资源
func run(cmd *cobra.Command, open func() (*app, error), fn func(ctx context.Context, a *app) (interface{}, error)) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := fn(cmd.Context(), a)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}
