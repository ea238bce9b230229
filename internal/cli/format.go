package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"overlap-api/internal/api"
)

var (
	warningColor = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	keyColor     = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// printLines：输出扁平列表；json/yaml 为字符串数组，text 逐行打印
func printLines(w io.Writer, format string, rep *api.Report) error {
	lines := rep.Lines
	if lines == nil {
		lines = []string{}
	}
	switch format {
	case "json":
		return encodeJSON(w, lines)
	case "yaml":
		return yaml.NewEncoder(w).Encode(lines)
	}

	printSkipped(w, rep)
	if len(lines) == 0 {
		_, _ = dimColor.Fprintln(w, "No partial overlaps found")
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

// 文档注释：输出分组视图
// 约束：json/yaml 与 HTTP 报告接口同形（{"overlap": {...}}）；输入不足时同样返回 error 提示键；text 按键升序打印。
func printGroups(w io.Writer, format string, rep *api.Report) error {
	groups := rep.Groups
	if groups == nil {
		groups = map[string]string{}
	}
	if rep.Insufficient() {
		groups = map[string]string{"error": api.InsufficientMsg}
	}
	switch format {
	case "json":
		return encodeJSON(w, map[string]map[string]string{"overlap": groups})
	case "yaml":
		return yaml.NewEncoder(w).Encode(map[string]map[string]string{"overlap": groups})
	}

	printSkipped(w, rep)
	if rep.Insufficient() {
		_, _ = warningColor.Fprintf(w, "⚠ %s\n", api.InsufficientMsg)
		return nil
	}
	if len(groups) == 0 {
		_, _ = dimColor.Fprintln(w, "No partial overlaps found")
		return nil
	}
	_, _ = headerColor.Fprintf(w, "▸ %d group(s) in %s\n\n", len(groups), rep.Folder)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = keyColor.Fprintf(w, "%s", k)
		fmt.Fprintf(w, ": %s\n", groups[k])
	}
	return nil
}

func printSkipped(w io.Writer, rep *api.Report) {
	for _, s := range rep.Skipped {
		_, _ = warningColor.Fprintf(w, "⚠ skipped %s (%s)\n", s.File, s.Reason)
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
