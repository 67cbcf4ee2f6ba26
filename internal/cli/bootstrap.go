package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shift-clock/backend/internal/repository"
	"shift-clock/backend/internal/service"
)

// NewBootstrapCommand 创建 bootstrap 命令
func NewBootstrapCommand(rootOpts *RootOptions) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "写入预置门店并确保存在超级管理员",
		Long: `门店表为空时写入预置门店。
未配置 bootstrap.admin_pin 且没有在职超级管理员时会生成随机 PIN，并只在此处输出一次。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if !skipMigrate {
				if err := rt.migrate(); err != nil {
					return err
				}
			}

			repo := repository.NewRepository(rt.db)
			creds := service.NewCredentialVerifier(repo, rt.cfg.Clock.PINLength, 0, rt.logger)
			bootstrap := service.NewBootstrapService(&rt.cfg.Bootstrap, repo, creds, rt.logger)

			result, err := bootstrap.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("初始化失败: %w", err)
			}
			printBootstrapResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "跳过数据库迁移")

	return cmd
}

// runBootstrap serve 启动时调用，生成的 PIN 输出到标准输出而非日志
func runBootstrap(ctx context.Context, svc service.BootstrapService, out io.Writer) error {
	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	printBootstrapResult(out, result)
	return nil
}

func printBootstrapResult(out io.Writer, result *service.BootstrapResult) {
	if result.SeededLocations > 0 {
		fmt.Fprintf(out, "已写入预置门店 %d 个\n", result.SeededLocations)
	}
	switch result.AdminAction {
	case service.AdminCreated:
		fmt.Fprintf(out, "已创建超级管理员: %s\n", result.AdminName)
	case service.AdminRekeyed:
		fmt.Fprintf(out, "已按配置重置超级管理员 PIN: %s\n", result.AdminName)
	}
	if result.AdminPIN != "" {
		fmt.Fprintf(out, "超级管理员初始 PIN: %s（请妥善保存，之后不会再次显示）\n", result.AdminPIN)
	}
}
