// 包 relate：几何拓扑关系能力接口与“部分重叠”判定
package relate

import (
	"errors"
	"fmt"

	"overlap-api/internal/geom"
)

var ErrEmptyGeometry = errors.New("empty geometry")

// 文档注释：拓扑关系能力（OGC 语义）
// 约束：实现须为精确/稳健判定，不得以包围盒或浮点容差近似；所有方法须对空几何返回 ErrEmptyGeometry。
type Relations interface {
	Intersects(a, b geom.Geometry) (bool, error)
	Contains(a, b geom.Geometry) (bool, error)
	Equals(a, b geom.Geometry) (bool, error)
	Touches(a, b geom.Geometry) (bool, error)
}

// Relater：可一次求出 DE-9IM 矩阵的实现；PartialOverlap 优先使用，避免五次独立判定
type Relater interface {
	Relate(a, b geom.Geometry) (Matrix, error)
}

// 文档注释：部分重叠判定
// 定义：相交，且互不包含，且拓扑不相等，且不只是边界接触。对参数顺序对称。
func PartialOverlap(r Relations, a, b geom.Geometry) (bool, error) {
	if rr, ok := r.(Relater); ok {
		m, err := rr.Relate(a, b)
		if err != nil {
			return false, err
		}
		return m.PartialOverlap(), nil
	}
	steps := []struct {
		name string
		want bool
		fn   func() (bool, error)
	}{
		{"intersects", true, func() (bool, error) { return r.Intersects(a, b) }},
		{"contains", false, func() (bool, error) { return r.Contains(a, b) }},
		{"contained", false, func() (bool, error) { return r.Contains(b, a) }},
		{"equals", false, func() (bool, error) { return r.Equals(a, b) }},
		{"touches", false, func() (bool, error) { return r.Touches(a, b) }},
	}
	for _, s := range steps {
		v, err := s.fn()
		if err != nil {
			return false, fmt.Errorf("%s: %w", s.name, err)
		}
		if v != s.want {
			return false, nil
		}
	}
	return true, nil
}
