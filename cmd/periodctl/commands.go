package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"competencias/backend/internal/model"
)

// ── current ──

func currentCmd(open func() (*app, error)) *cobra.Command {
	var (
		year  int
		half  int
		force bool
	)
	cmd := &cobra.Command{
		Use:   "current",
		Short: "确保当前（或指定）学期存在",
		Long:  "未指定 --year/--half 时按配置时区的今天推算学期。--force 会将已有学期重置为默认起止日期并设为活动学期。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) (interface{}, error) {
				y, h := targetHalf(time.Now().In(a.cfg.Period.Location()), year, half)
				return a.periods.EnsurePeriod(ctx, y, h, force)
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "学年（默认今年）")
	cmd.Flags().IntVar(&half, "half", 0, "半年度 1 或 2（默认按当前月份）")
	cmd.Flags().BoolVar(&force, "force", false, "已存在时重置起止日期并激活")
	return cmd
}

// targetHalf 未显式指定的部分由 now 补齐
func targetHalf(now time.Time, year, half int) (int, model.Half) {
	if year == 0 {
		year = now.Year()
	}
	h := model.Half(half)
	if half == 0 {
		h = model.HalfOf(now)
	}
	return year, h
}

// ── backfill ──

func backfillCmd(open func() (*app, error)) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "为缺少学期的历史评分补齐学期",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit 不能为负数")
			}
			return run(cmd, open, func(ctx context.Context, a *app) (interface{}, error) {
				return a.periods.BackfillMissingPeriods(ctx, limit)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "本次最多成功回填的评分数，失败的评分会被跳过（0 表示全部）")
	return cmd
}

// ── list ──

func listCmd(open func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出全部学期（新的在前）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) (interface{}, error) {
				return a.periods.List(ctx)
			})
		},
	}
}

// ── activate ──

func activateCmd(open func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <period-id>",
		Short: "将指定学期设为唯一的活动学期",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) (interface{}, error) {
				return a.periods.Activate(ctx, args[0])
			})
		},
	}
}

// ── resolve ──

func resolveCmd(open func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <YYYY-MM-DD>",
		Short: "解析日期所属学期，不存在时按默认边界创建",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) (interface{}, error) {
				return a.periods.ResolveDay(ctx, args[0])
			})
		},
	}
}

// ── migrate ──

func migrateCmd(open func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移并输出 schema 版本",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// 迁移在 bootstrap 中已执行
			return run(cmd, open, func(_ context.Context, a *app) (interface{}, error) {
				return a.migration, nil
			})
		},
	}
}
