// 包 source：扫描目录并把每个几何文件转换为带标识的几何，供重叠检测引擎使用
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"overlap-api/internal/geom"
	"overlap-api/internal/logger"
	"overlap-api/internal/metrics"
	"overlap-api/internal/relate"
)

var ErrNotDir = errors.New("not a directory")

var defaultExts = []string{".geojson", ".json"}

// Options：目录加载参数
type Options struct {
	CoordSys string
	Workers  int
	Exts     []string
}

func (o Options) exts() []string {
	if len(o.Exts) == 0 {
		return defaultExts
	}
	return o.Exts
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// File：候选文件的元数据
type File struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Listing：目录扫描结果（尚未解析）；Fingerprint 随文件名/大小/修改时间变化
type Listing struct {
	Dir         string
	Files       []File
	Fingerprint string
}

// Skip：被跳过的文件与原因
type Skip struct {
	File   string `json:"file" yaml:"file"`
	Reason string `json:"reason" yaml:"reason"`
	Err    string `json:"error" yaml:"error"`
}

// Snapshot：一次加载的结果，只读；条目顺序与文件名顺序一致
type Snapshot struct {
	Dir         string
	Entries     []geom.Named
	Skipped     []Skip
	Fingerprint string
	BuiltAt     time.Time
}

// 文档注释：列出目录中的几何文件
// 约束：不递归子目录；扩展名大小写不敏感；按文件名排序，保证检测输入顺序稳定。
func List(dir string, opts Options) (*Listing, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	l := &Listing{Dir: dir}
	for _, ent := range entries {
		if ent.IsDir() || !hasExt(ent.Name(), opts.exts()) {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		l.Files = append(l.Files, File{
			Name:    ent.Name(),
			Path:    filepath.Join(dir, ent.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(l.Files, func(i, j int) bool { return l.Files[i].Name < l.Files[j].Name })
	l.Fingerprint = fingerprint(dir, l.Files)
	return l, nil
}

// 文档注释：并行解析全部文件
// 约束：单个文件不可用（读取失败、JSON 错误、不支持的类型、拓扑无效）只记录并跳过，不中断整批；
// 仅上下文取消或坐标系参数错误返回 error。
func (l *Listing) Load(ctx context.Context, opts Options) (*Snapshot, error) {
	norm, err := Normalizer(opts.CoordSys)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", opts.CoordSys, err)
	}
	type slot struct {
		g    geom.Geometry
		skip *Skip
	}
	slots := make([]slot, len(l.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, f := range l.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			geo, reason, err := loadFile(f.Path, norm)
			if err != nil {
				slots[i].skip = &Skip{File: f.Name, Reason: reason, Err: err.Error()}
				return nil
			}
			slots[i].g = geo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{Dir: l.Dir, Fingerprint: l.Fingerprint, BuiltAt: time.Now()}
	for i, s := range slots {
		if s.skip != nil {
			logger.L().Warn("source_skip", "file", s.skip.File, "reason", s.skip.Reason, "err", s.skip.Err)
			metrics.SourceSkippedTotal.WithLabelValues(s.skip.Reason).Inc()
			snap.Skipped = append(snap.Skipped, *s.skip)
			continue
		}
		metrics.SourceFilesTotal.Inc()
		snap.Entries = append(snap.Entries, geom.Named{ID: l.Files[i].Name, Geom: s.g})
	}
	logger.L().Debug("source_loaded", "dir", l.Dir, "files", len(l.Files), "entries", len(snap.Entries), "skipped", len(snap.Skipped))
	return snap, nil
}

// LoadDir：List + Load
func LoadDir(ctx context.Context, dir string, opts Options) (*Snapshot, error) {
	l, err := List(dir, opts)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, opts)
}

func loadFile(path string, norm func(geom.Point) geom.Point) (geom.Geometry, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return geom.Geometry{}, "read", err
	}
	g, err := decodeGeoJSON(b)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupported), errors.Is(err, ErrNoGeometry):
			return geom.Geometry{}, "unsupported", err
		case errors.Is(err, ErrInvalid):
			return geom.Geometry{}, "invalid", err
		}
		return geom.Geometry{}, "decode", err
	}
	if norm != nil {
		g = g.Map(norm)
	}
	if err := relate.Validate(g); err != nil {
		return geom.Geometry{}, "invalid", err
	}
	return g, "", nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func fingerprint(dir string, files []File) string {
	h := sha256.New()
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	h.Write([]byte(abs))
	for _, f := range files {
		h.Write([]byte{0})
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(f.Size, 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(f.ModTime.UnixNano(), 10)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
