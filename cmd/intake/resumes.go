package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"resume-intake/internal/client"
	"resume-intake/internal/ingest"
	"resume-intake/internal/profile"
	"resume-intake/internal/types"
)

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("无效的简历ID: %s", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <id>...",
		Short: "按ID刷新简历的解析状态",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			backend, err := ctx.client()
			if err != nil {
				return err
			}
			items, err := backend.FetchByIDs(cmd.Context(), ids)
			if err != nil {
				return fmt.Errorf("刷新失败: %s", client.Message(err))
			}
			results := ingest.Normalize(items)
			if ctx.opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(resultHeaders, resultRows(results), resultAligns))
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var skip, limit, status int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "分页列出后端的简历",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := ctx.client()
			if err != nil {
				return err
			}
			query := client.ListQuery{Skip: skip, Limit: limit}
			if cmd.Flags().Changed("status") {
				query.Status = &status
			}
			resp, err := backend.List(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("查询失败: %s", client.Message(err))
			}
			if ctx.opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp.Items)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(itemHeaders, itemRows(resp.Items), itemAligns))
			fmt.Fprintf(out, "共 %d 条，平均解析耗时 %.1f 秒\n", resp.Count, resp.AverageParseTime)
			return nil
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "跳过的条数")
	cmd.Flags().IntVar(&limit, "limit", 20, "返回的条数")
	cmd.Flags().IntVar(&status, "status", 0, "按状态过滤：0 待解析，10 解析中，20 成功，30 失败")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "查看一份简历的结构化数据（以表单字段展示）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			backend, err := ctx.client()
			if err != nil {
				return err
			}
			item, err := backend.Detail(cmd.Context(), ids[0])
			if err != nil {
				return fmt.Errorf("获取详情失败: %s", client.Message(err))
			}
			values := profile.ToForm(item.StructInfo, fallbackName(item))
			if ctx.opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), values)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"字段", "内容"}, formRows(values), nil))
			return nil
		},
	}
}

// fallbackName 结构化数据没有姓名时用文件名代替
func fallbackName(item types.BackendItem) *string {
	if item.FileName == "" {
		return nil
	}
	return types.Str(item.FileName)
}

func formRows(v types.ResumeFormValues) [][]string {
	rows := [][]string{
		{"name", v.Name},
		{"gender", genderText(v.Gender)},
		{"phone", v.Phone},
		{"email", v.Email},
		{"city", v.City},
		{"origin", v.Origin},
		{"expectedSalary", v.ExpectedSalary},
		{"skills", v.Skills},
		{"softSkills", v.SoftSkills},
		{"hobbies", v.Hobbies},
		{"selfEvaluation", v.SelfEvaluation},
	}
	for i, w := range v.WorkExperience {
		rows = append(rows, []string{fmt.Sprintf("workExperience[%d]", i), joinFields(w.Organization, w.Title, dateRange(w.StartDate, w.EndDate))})
	}
	for i, p := range v.ProjectExperience {
		rows = append(rows, []string{fmt.Sprintf("projectExperience[%d]", i), joinFields(p.Organization, p.Role, dateRange(p.StartDate, p.EndDate))})
	}
	for i, e := range v.Education {
		rows = append(rows, []string{fmt.Sprintf("education[%d]", i), joinFields(e.Institution, e.Major, e.DegreeType, dateRange(e.StartDate, e.EndDate))})
	}
	return rows
}

func genderText(g *types.Gender) string {
	if g == nil {
		return ""
	}
	return string(*g)
}

func joinFields(parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " / ")
}

func dateRange(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	return start + " ~ " + end
}
