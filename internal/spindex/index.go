// 包 spindex：基于 R-Tree 的包围盒候选过滤
package spindex

import (
	"github.com/peterstace/simplefeatures/rtree"

	"overlap-api/internal/geom"
)

// 文档注释：空间索引（批量装载 R-Tree）
// 背景：对每个几何按包围盒检索候选，避免全量两两比较。
// 约束：只做包围盒过滤，结果为真实重叠的超集，不参与最终判定；每次检测新建，不跨请求共享。
type Index struct {
	tree    *rtree.RTree
	entries []geom.Named
	envs    []geom.Envelope
}

// Build：批量装载全部条目；空几何不入索引，但保留位置以便调用方按下标回查
func Build(entries []geom.Named) *Index {
	idx := &Index{
		entries: entries,
		envs:    make([]geom.Envelope, len(entries)),
	}
	items := make([]rtree.BulkItem, 0, len(entries))
	for i, e := range entries {
		env := e.Geom.Envelope()
		idx.envs[i] = env
		if env.IsEmpty() {
			continue
		}
		items = append(items, rtree.BulkItem{Box: toBox(env), RecordID: i})
	}
	idx.tree = rtree.BulkLoad(items)
	return idx
}

func (x *Index) Len() int { return len(x.entries) }

func (x *Index) Entry(i int) geom.Named { return x.entries[i] }

func (x *Index) Envelope(i int) geom.Envelope { return x.envs[i] }

// Query：返回包围盒与 env 相交（含边界接触）的条目下标，顺序不保证
func (x *Index) Query(env geom.Envelope) []int {
	if env.IsEmpty() || x.tree == nil {
		return nil
	}
	var out []int
	_ = x.tree.RangeSearch(toBox(env), func(recordID int) error {
		out = append(out, recordID)
		return nil
	})
	return out
}

func toBox(e geom.Envelope) rtree.Box {
	return rtree.Box{MinX: e.MinX(), MinY: e.MinY(), MaxX: e.MaxX(), MaxY: e.MaxY()}
}
