package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-intake/internal/config"
)

func newInitConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [路径]",
		Short: "生成示例配置文件",
		Args:  cobra.MaximumNArgs(1),
		// 生成配置时不需要加载配置
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateSampleConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成示例配置: %s\n", path)
			return nil
		},
	}
}
