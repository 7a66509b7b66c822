package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"resume-intake/internal/types"
	"resume-intake/internal/uploader"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// resultRows 入库结果表格
func resultRows(results []types.IngestionResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		var size int64
		if r.Data != nil {
			size = r.Data.Size
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.Backend.ID, 10),
			r.FileName,
			humanize.Bytes(uint64(size)),
			r.Status.String(),
			r.Error,
		})
	}
	return rows
}

var resultHeaders = []string{"ID", "文件", "大小", "状态", "说明"}
var resultAligns = []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft}

// itemRows 后端记录表格
func itemRows(items []types.BackendItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		name := ""
		if it.StructInfo != nil && it.StructInfo.BasicInfo != nil {
			name = types.Deref(it.StructInfo.BasicInfo.Name)
		}
		rows = append(rows, []string{
			strconv.FormatInt(it.ID, 10),
			it.FileName,
			humanize.Bytes(uint64(max(it.FileSize, 0))),
			it.Status.String(),
			name,
			it.StatusMsg,
		})
	}
	return rows
}

var itemHeaders = []string{"ID", "文件", "大小", "状态", "姓名", "说明"}
var itemAligns = []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printNotifications 把提示写到标准错误，和结果表格分开
func printNotifications(w io.Writer, notes []uploader.Notification) {
	for _, n := range notes {
		mark := "✓"
		if n.Level == uploader.LevelError {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, n.Message)
	}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
