package overlap

import (
	"slices"
	"strings"
)

// 对外展示的分隔符
const (
	linePrefix  = "Partial overlap between: "
	pairArrow   = " ⟷ "
	memberDelim = ", "
)

// Pair：一条部分重叠关系；A 为首次发现时的外层条目
type Pair struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

func (p Pair) String() string { return linePrefix + p.A + pairArrow + p.B }

// Group：以字典序较小的标识为键，成员为与其重叠的标识（升序）
type Group struct {
	Key     string   `json:"key"`
	Members []string `json:"members"`
}

// Result：一次检测的去重关系集合
type Result struct {
	Pairs  []Pair
	Usable int
	Stats  Stats
}

// Insufficient：可用几何少于两个，调用方可据此返回“输入不足”提示
func (r *Result) Insufficient() bool { return r == nil || r.Usable < 2 }

// Lines：扁平列表，按首次发现顺序
func (r *Result) Lines() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		out = append(out, p.String())
	}
	return out
}

// Groups：分组视图，按键升序，成员升序去重
func (r *Result) Groups() []Group {
	if r == nil || len(r.Pairs) == 0 {
		return nil
	}
	byKey := make(map[string][]string)
	for _, p := range r.Pairs {
		k := keyOf(p.A, p.B)
		byKey[k.lo] = append(byKey[k.lo], k.hi)
	}
	out := make([]Group, 0, len(byKey))
	for k, ms := range byKey {
		slices.Sort(ms)
		out = append(out, Group{Key: k, Members: slices.Compact(ms)})
	}
	slices.SortFunc(out, func(a, b Group) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// GroupMap：键 → 逗号拼接的成员列表；encoding/json 序列化 map 时按键排序，输出稳定
func (r *Result) GroupMap() map[string]string {
	gs := r.Groups()
	out := make(map[string]string, len(gs))
	for _, g := range gs {
		out[g.Key] = strings.Join(g.Members, memberDelim)
	}
	return out
}
