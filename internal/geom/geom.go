// 包 geom：二维几何的最小数据结构（点、外环多边形、折线）与包围盒
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Kind：几何类型标签
type Kind uint8

const (
	KindEmpty Kind = iota
	KindPolygon
	KindLineString
)

func (k Kind) String() string {
	switch k {
	case KindPolygon:
		return "Polygon"
	case KindLineString:
		return "LineString"
	default:
		return "Empty"
	}
}

// 平面坐标；地理数据中 X 为经度，Y 为纬度
type Point struct {
	X float64
	Y float64
}

// 文档注释：几何体（带标签的变体）
// 约束：Polygon 仅保存外环，首尾点相同且至少 4 个点；LineString 至少 2 个点；零值为空几何。
// 几何一经构造即只读，调用方不得修改 Points 返回的切片。
type Geometry struct {
	kind Kind
	pts  []Point
}

var (
	ErrTooFewPoints  = errors.New("too few points")
	ErrRingNotClosed = errors.New("ring is not closed")
	ErrNonFinite     = errors.New("non-finite coordinate")
)

// NewPolygon：由外环构造多边形；未闭合的环自动补上首点
func NewPolygon(ring []Point) (Geometry, error) {
	pts := append([]Point(nil), ring...)
	if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		pts = append(pts, pts[0])
	}
	g := Geometry{kind: KindPolygon, pts: pts}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// NewLineString：由顶点序列构造折线
func NewLineString(pts []Point) (Geometry, error) {
	g := Geometry{kind: KindLineString, pts: append([]Point(nil), pts...)}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// Rect：轴对齐矩形多边形，便于构造测试与样例数据
func Rect(minX, minY, maxX, maxY float64) Geometry {
	return Geometry{kind: KindPolygon, pts: []Point{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func (g Geometry) Kind() Kind      { return g.kind }
func (g Geometry) IsEmpty() bool   { return g.kind == KindEmpty || len(g.pts) == 0 }
func (g Geometry) Points() []Point { return g.pts }

// Validate：结构性校验（点数、闭合、有限坐标）；拓扑有效性（自相交等）由 relate 包负责
func (g Geometry) Validate() error {
	for _, p := range g.pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return ErrNonFinite
		}
	}
	switch g.kind {
	case KindPolygon:
		if len(g.pts) < 4 {
			return fmt.Errorf("polygon ring has %d points: %w", len(g.pts), ErrTooFewPoints)
		}
		if g.pts[0] != g.pts[len(g.pts)-1] {
			return ErrRingNotClosed
		}
	case KindLineString:
		if len(g.pts) < 2 {
			return fmt.Errorf("line string has %d points: %w", len(g.pts), ErrTooFewPoints)
		}
	}
	return nil
}

// Envelope：由顶点求包围盒；空几何返回空包围盒
func (g Geometry) Envelope() Envelope {
	if len(g.pts) == 0 {
		return Envelope{}
	}
	first := orb.Point{g.pts[0].X, g.pts[0].Y}
	b := orb.Bound{Min: first, Max: first}
	for _, p := range g.pts[1:] {
		b = b.Extend(orb.Point{p.X, p.Y})
	}
	return Envelope{b: b, ok: true}
}

// Map：逐点变换，返回同类型的新几何（用于坐标系转换）
func (g Geometry) Map(fn func(Point) Point) Geometry {
	out := Geometry{kind: g.kind, pts: make([]Point, len(g.pts))}
	for i, p := range g.pts {
		out.pts[i] = fn(p)
	}
	return out
}

// Named：带唯一标识（通常为文件名）的几何
type Named struct {
	ID   string
	Geom Geometry
}
