package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// globalOptions 所有子命令共用的参数
type globalOptions struct {
	configPath string
	logLevel   string
	sessionID  string
	jsonOutput bool
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *globalOptions) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "配置文件路径，默认在当前目录和 ~/.resume-intake 下查找")
	fs.StringVar(&opts.logLevel, "log-level", "", "覆盖配置中的日志级别")
	fs.StringVar(&opts.sessionID, "session", "", "会话ID，用于 Redis 指纹登记表")
	fs.BoolVar(&opts.jsonOutput, "json", false, "以 JSON 输出结果")
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	ctx := newCommandContext(opts)

	rootCmd := &cobra.Command{
		Use:           "intake",
		Short:         "简历批量上传与结构化编辑工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	bindGlobalFlags(rootCmd.PersistentFlags(), opts)

	rootCmd.AddCommand(newUploadCommand(ctx))
	rootCmd.AddCommand(newRefreshCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newEditCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newInitConfigCommand())

	return rootCmd
}
