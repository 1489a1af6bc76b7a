// @title Career Advisor 后端 API
// @version 1.0
// @description 职业推荐、学习路线图与学习进度服务。

// @host localhost:8080
// @BasePath /

package main

import (
	"career_advisor_backend/internal/app"
	"career_advisor_backend/internal/config"
	"career_advisor_backend/pkg/configwatcher"
	"career_advisor_backend/pkg/database"
	"career_advisor_backend/pkg/logger"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configDir    string
	forceMigrate bool
	watchConfig  bool
)

var rootCmd = &cobra.Command{
	Use:           "career-advisor",
	Short:         "职业推荐与学习路线图服务",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务（默认命令）",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "只执行数据库迁移，完成后退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.InitLogger(cfg)
		defer logger.Log.Sync()

		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Log.Info("数据库迁移完成", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "configs", "配置文件所在目录")
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().BoolVar(&forceMigrate, "migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
		cmd.Flags().BoolVar(&watchConfig, "watch", true, "监听配置文件变更并热更新超时与日志级别")
	}
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ForceMigrate = forceMigrate

	application, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer logger.Log.Sync()

	if watchConfig {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := configwatcher.Watch(ctx, configDir, application.ApplyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}

	return application.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
