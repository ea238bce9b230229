// 包 cli：overlap-check 命令行入口，复用 api.Service 的检测流程（不启用报告缓存）
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"overlap-api/internal/api"
	"overlap-api/internal/logger"
	"overlap-api/internal/overlap"
	"overlap-api/internal/relate"
	"overlap-api/internal/source"
)

type options struct {
	format   string
	coordSys string
	workers  int
	timeout  time.Duration
	logLevel string
}

// Execute：构建命令树并按 os.Args 执行
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// 文档注释：overlap-check 命令树
// 约束：check 输出扁平列表，report 输出分组视图；--format 与 --coord-sys 等为全局参数；输出写入 cmd.OutOrStdout。
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:     "overlap-check",
		Version: version,
		Short:   "Find partially overlapping geometries in a folder",
		Long: `overlap-check scans a folder of GeoJSON files, takes one polygon or line per file
and reports every pair that partially overlaps: the two intersect, neither contains
the other, they are not equal, and they do not merely touch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	if version == "" {
		root.Version = "dev"
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json or yaml")
	pf.StringVar(&opts.coordSys, "coord-sys", "", "Input coordinate system: WGS84 (default), GCJ-02 or BD-09")
	pf.IntVar(&opts.workers, "workers", 0, "Files decoded in parallel (0 = GOMAXPROCS)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "Abort detection after this long (0 = no limit)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "check <folder>",
			Short: "List every partially overlapping pair",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rep, err := run(cmd.Context(), cmd.ErrOrStderr(), opts, args[0])
				if err != nil {
					return err
				}
				return printLines(cmd.OutOrStdout(), opts.format, rep)
			},
		},
		&cobra.Command{
			Use:   "report <folder>",
			Short: "Group overlapping geometries by representative file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rep, err := run(cmd.Context(), cmd.ErrOrStderr(), opts, args[0])
				if err != nil {
					return err
				}
				return printGroups(cmd.OutOrStdout(), opts.format, rep)
			},
		},
	)
	return root
}

func run(ctx context.Context, stderr io.Writer, opts *options, folder string) (*api.Report, error) {
	switch opts.format {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	l := logger.SetupWriter(stderr, opts.logLevel, "text")
	eng := overlap.New(relate.SimpleFeatures{}, overlap.WithLogger(l))
	svc := api.NewService(eng, nil, source.Options{CoordSys: opts.coordSys, Workers: opts.workers}, opts.timeout)
	return svc.Run(ctx, folder)
}
