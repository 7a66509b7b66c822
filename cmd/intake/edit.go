package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"resume-intake/internal/client"
	"resume-intake/internal/editor"
	"resume-intake/internal/logger"
	"resume-intake/internal/profile"
	"resume-intake/internal/types"
)

// editPlan 一次 edit 命令要做的修改
type editPlan struct {
	removes []string
	appends []string
	sets    []string
}

// apply 依次执行删除、追加和赋值，赋值可以引用刚追加的条目
func (e editPlan) apply(sess *editor.Session) error {
	for _, r := range e.removes {
		section, idx, ok := strings.Cut(r, ":")
		if !ok {
			return fmt.Errorf("--remove 格式应为 列表:索引，实际为 %q", r)
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			return fmt.Errorf("--remove 索引无效: %q", r)
		}
		if err := sess.RemoveEntry(editor.Section(section), i); err != nil {
			return err
		}
	}
	for _, a := range e.appends {
		if err := sess.AppendEntry(editor.Section(a)); err != nil {
			return err
		}
	}
	for _, s := range e.sets {
		path, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("--set 格式应为 路径=值，实际为 %q", s)
		}
		if err := sess.Set(strings.TrimSpace(path), value); err != nil {
			return err
		}
	}
	return nil
}

func (e editPlan) empty() bool {
	return len(e.removes) == 0 && len(e.appends) == 0 && len(e.sets) == 0
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var plan editPlan
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "修改一份简历的结构化数据并回写后端",
		Example: `  intake edit 42 --set phone=13800138000 --set "skills=Go, Redis"
  intake edit 42 --append workExperience --set workExperience.1.organization=某公司
  intake edit 42 --remove education:0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if plan.empty() {
				return errors.New("没有指定任何修改")
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			id := ids[0]

			backend, err := ctx.client()
			if err != nil {
				return err
			}
			item, err := backend.Detail(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("获取详情失败: %s", client.Message(err))
			}

			changes := 0
			sess := editor.New(editor.WithOnStructChange(func(types.StructInfo) { changes++ }))
			sess.Load(editor.Input{Struct: item.StructInfo, FallbackName: fallbackName(item)})
			if err := plan.apply(sess); err != nil {
				return err
			}
			if err := sess.Validate(); err != nil {
				var verr *profile.ValidationError
				if errors.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %s\n", f.Field, f.Message)
					}
				}
				return err
			}

			info, _ := sess.Last()
			logger.Debug().Int64("resume_id", id).Int("changes", changes).Msg("表单修改完成")
			if dryRun {
				return writeJSON(cmd.OutOrStdout(), info)
			}

			values := sess.Values()
			updateErr := backend.UpdateDetail(cmd.Context(), id, info)
			if drafts := ctx.drafts(); drafts != nil {
				draft, err := drafts.SaveDraft(cmd.Context(), id, item.FileName, &values, info, updateErr == nil, ctx.draftTarget())
				if err != nil {
					logger.Warn().Err(err).Int64("resume_id", id).Msg("保存草稿失败")
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "草稿已保存为第 %d 版\n", draft.Version)
				}
			}
			if updateErr != nil {
				return fmt.Errorf("回写失败: %s", client.Message(updateErr))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "简历 %d 已更新\n", id)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&plan.sets, "set", nil, "设置字段，格式 路径=值，例如 workExperience.0.title=工程师")
	cmd.Flags().StringArrayVar(&plan.appends, "append", nil, "在列表末尾追加空条目：workExperience、projectExperience、education、workSkills")
	cmd.Flags().StringArrayVar(&plan.removes, "remove", nil, "删除列表条目，格式 列表:索引")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只输出修改后的结构化数据，不回写")
	return cmd
}
