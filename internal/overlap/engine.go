// 包 overlap：部分重叠检测引擎（R-Tree 候选 → 精确拓扑判定 → 去重 → 分组）
package overlap

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"overlap-api/internal/geom"
	"overlap-api/internal/logger"
	"overlap-api/internal/relate"
	"overlap-api/internal/spindex"
)

var (
	ErrDuplicateID = errors.New("duplicate identifier")
	ErrEmptyID     = errors.New("empty identifier")
)

// 文档注释：检测引擎
// 约束：纯同步计算；每次 Detect 独立构建索引与关系集合，不持有跨调用的可变状态，可被并发请求共享。
type Engine struct {
	rel relate.Relations
	log *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

func New(rel relate.Relations, opts ...Option) *Engine {
	if rel == nil {
		rel = relate.SimpleFeatures{}
	}
	e := &Engine{rel: rel}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = logger.L()
	}
	return e
}

// Stats：单次检测的计数，供指标与日志使用
type Stats struct {
	Input      int
	Empty      int
	Candidates int
	Evaluated  int
}

// 文档注释：检测部分重叠
// 参数：entries 按调用方顺序遍历，标识须唯一且非空；空几何不参与检测。
// 返回：去重后的关系集合；标识重复或为空时返回 ErrDuplicateID / ErrEmptyID；拓扑判定错误原样上抛。
func (e *Engine) Detect(entries []geom.Named) (*Result, error) {
	seen := make(map[string]struct{}, len(entries))
	usable := make([]geom.Named, 0, len(entries))
	st := Stats{Input: len(entries)}
	for _, n := range entries {
		if n.ID == "" {
			return nil, ErrEmptyID
		}
		if _, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, n.ID)
		}
		seen[n.ID] = struct{}{}
		if n.Geom.IsEmpty() {
			st.Empty++
			e.log.Debug("overlap_skip_empty", "id", n.ID)
			continue
		}
		usable = append(usable, n)
	}

	res := &Result{Usable: len(usable)}
	if len(usable) < 2 {
		res.Stats = st
		return res, nil
	}

	idx := spindex.Build(usable)
	// 判定对称，每个无序对只判定一次；反向发现直接跳过
	checked := make(map[pairKey]struct{})
	for i := 0; i < idx.Len(); i++ {
		outer := idx.Entry(i)
		cands := idx.Query(idx.Envelope(i))
		slices.Sort(cands)
		for _, j := range cands {
			if j == i {
				continue
			}
			inner := idx.Entry(j)
			if inner.ID == outer.ID {
				continue
			}
			st.Candidates++
			k := keyOf(outer.ID, inner.ID)
			if _, dup := checked[k]; dup {
				continue
			}
			checked[k] = struct{}{}
			st.Evaluated++
			ok, err := relate.PartialOverlap(e.rel, outer.Geom, inner.Geom)
			if err != nil {
				return nil, fmt.Errorf("relate %q and %q: %w", outer.ID, inner.ID, err)
			}
			if !ok {
				continue
			}
			res.Pairs = append(res.Pairs, Pair{A: outer.ID, B: inner.ID})
		}
	}
	res.Stats = st
	e.log.Debug("overlap_detect_done",
		"input", st.Input,
		"usable", res.Usable,
		"candidates", st.Candidates,
		"evaluated", st.Evaluated,
		"pairs", len(res.Pairs),
	)
	return res, nil
}

// 无序对的规范键（字典序小者在前）
type pairKey struct{ lo, hi string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}
