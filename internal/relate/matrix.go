package relate

import (
	"fmt"

	sf "github.com/peterstace/simplefeatures/geom"
)

// Matrix：DE-9IM 交集矩阵（行：A 的内部/边界/外部；列：B 的内部/边界/外部），字符取 F/0/1/2
type Matrix string

// ParseMatrix：校验 9 位矩阵字符串
func ParseMatrix(s string) (Matrix, error) {
	if _, err := sf.RelateMatches(s, "*********"); err != nil {
		return "", fmt.Errorf("bad intersection matrix %q: %w", s, err)
	}
	return Matrix(s), nil
}

// Matches：按 OGC 模式匹配（T 为非 F，* 为任意）；矩阵或模式非法时视为不匹配
func (m Matrix) Matches(pattern string) bool {
	ok, err := sf.RelateMatches(string(m), pattern)
	return err == nil && ok
}

func (m Matrix) Intersects() bool { return !m.Matches("FF*FF****") }
func (m Matrix) Contains() bool   { return m.Matches("T*****FF*") }
func (m Matrix) Within() bool     { return m.Matches("T*F**F***") }
func (m Matrix) Equals() bool     { return m.Matches("T*F**FFF*") }

func (m Matrix) Touches() bool {
	return m.Matches("FT*******") || m.Matches("F**T*****") || m.Matches("F***T****")
}

func (m Matrix) PartialOverlap() bool {
	return m.Intersects() && !m.Contains() && !m.Within() && !m.Equals() && !m.Touches()
}
