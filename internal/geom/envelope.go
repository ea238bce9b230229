package geom

import "github.com/paulmach/orb"

// 轴对齐包围盒（orb.Bound）；仅用于候选过滤，不参与最终判定
type Envelope struct {
	b  orb.Bound
	ok bool
}

func (e Envelope) IsEmpty() bool { return !e.ok }

// Bound：底层 orb 包围盒；空包围盒返回零值
func (e Envelope) Bound() orb.Bound { return e.b }

func (e Envelope) MinX() float64 { return e.b.Min.X() }
func (e Envelope) MinY() float64 { return e.b.Min.Y() }
func (e Envelope) MaxX() float64 { return e.b.Max.X() }
func (e Envelope) MaxY() float64 { return e.b.Max.Y() }

// Intersects：闭区间相交（边界接触也视为相交，保证过滤阶段不漏检）
func (e Envelope) Intersects(o Envelope) bool {
	return e.ok && o.ok && e.b.Intersects(o.b)
}
