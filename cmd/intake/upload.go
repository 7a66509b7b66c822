package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"resume-intake/internal/filter"
	"resume-intake/internal/logger"
	"resume-intake/internal/source"
	"resume-intake/internal/uploader"
)

// newProcessor 按配置组装上传处理器
func (c *commandContext) newProcessor(extra ...uploader.Option) (*uploader.Processor, error) {
	backend, err := c.client()
	if err != nil {
		return nil, err
	}
	registry, err := c.registry()
	if err != nil {
		return nil, err
	}
	opts := []uploader.Option{
		uploader.WithSettings(uploader.SettingsFromConfig(c.cfg.Upload)),
		uploader.WithFilter(filter.FromConfig(c.cfg.Upload)),
		uploader.WithRegistry(registry),
		uploader.WithSessionID(c.cfg.Session.ID),
	}
	if pub := c.batchPublisher(); pub != nil {
		opts = append(opts, uploader.WithPublisher(pub))
	}
	return uploader.NewProcessor(backend, append(opts, extra...)...), nil
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var fromMinIO string

	cmd := &cobra.Command{
		Use:   "upload [文件或目录...]",
		Short: "批量上传简历文件",
		Long:  "把本地文件（目录只展开一层）或 MinIO 前缀下的对象作为一个批次上传，只接受 PDF、DOC、DOCX。",
		RunE: func(cmd *cobra.Command, args []string) error {
			useMinIO := cmd.Flags().Changed("from-minio")
			if len(args) == 0 && !useMinIO {
				return fmt.Errorf("请指定要上传的文件、目录或 --from-minio 前缀")
			}

			files, err := source.ExpandPaths(args)
			if err != nil {
				return err
			}
			if useMinIO {
				s, err := ctx.storage()
				if err != nil {
					return err
				}
				if s.MinIO == nil {
					return fmt.Errorf("MinIO 未配置或不可用")
				}
				objects, err := source.ListObjectFiles(cmd.Context(), s.MinIO, fromMinIO)
				if err != nil {
					return err
				}
				files = append(files, objects...)
			}

			progress := newProgressView(isTerminal(os.Stderr))
			proc, err := ctx.newProcessor(
				uploader.WithNotifier(uploader.NotifierFunc(func(n uploader.Notification) {
					progress.clear()
					printNotifications(os.Stderr, []uploader.Notification{n})
				})),
				uploader.WithStateListener(progress.update),
			)
			if err != nil {
				return err
			}

			batch, err := proc.Submit(cmd.Context(), files)
			if err != nil {
				return err
			}
			if batch == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "没有需要上传的文件")
				return nil
			}

			// Ctrl-C 只停止等待，已发出的请求不会被中断
			waitCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			summary, err := batch.Wait(waitCtx)
			if err != nil {
				return err
			}
			progress.clear()

			if ctx.opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			if len(summary.Results) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(resultHeaders, resultRows(summary.Results), resultAligns))
			}
			logger.Debug().Str("batch_id", summary.BatchID).Str("outcome", summary.Outcome).Msg("批次结束")
			return summary.Err
		},
	}
	cmd.Flags().StringVar(&fromMinIO, "from-minio", "", "从 MinIO 存储桶的该前缀下读取待上传对象")
	return cmd
}

// progressView 终端下显示进度条，否则按日志输出
type progressView struct {
	bar *progressbar.ProgressBar
}

func newProgressView(tty bool) *progressView {
	if !tty {
		return &progressView{}
	}
	return &progressView{bar: progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("上传中"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)}
}

func (v *progressView) update(s uploader.State) {
	if !s.Uploading {
		return
	}
	if v.bar == nil {
		logger.Info().Str("batch_id", s.BatchID).Float64("progress", s.Progress).Int("files", len(s.Files)).Msg("上传进度")
		return
	}
	_ = v.bar.Set(int(s.Progress))
}

func (v *progressView) clear() {
	if v.bar != nil {
		_ = v.bar.Clear()
	}
}
