package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"shift-clock/backend/pkg/database"
)

// NewMigrateCommand 创建 migrate 命令
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		Long: `执行 pkg/database/migrations 下全部待执行的迁移。
使用 --down N 回滚最近 N 个版本。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if down > 0 {
				sqlDB, err := rt.db.DB()
				if err != nil {
					return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
				}
				if err := database.RollbackMigrations(sqlDB, down, rt.logger); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "已回滚 %d 个迁移版本\n", down)
				return nil
			}

			if err := rt.migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "数据库迁移完成")
			return nil
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "回滚的迁移版本数")

	return cmd
}
