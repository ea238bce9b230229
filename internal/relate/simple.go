package relate

import (
	"fmt"

	sf "github.com/peterstace/simplefeatures/geom"

	"overlap-api/internal/geom"
)

// 文档注释：基于 simplefeatures 的拓扑关系实现（纯 Go DE-9IM）
// 约束：无状态，可在并发请求间共享；每次调用按需转换几何。
type SimpleFeatures struct{}

var (
	_ Relations = SimpleFeatures{}
	_ Relater   = SimpleFeatures{}
)

func (SimpleFeatures) Intersects(a, b geom.Geometry) (bool, error) {
	ga, gb, err := convertPair(a, b)
	if err != nil {
		return false, err
	}
	return sf.Intersects(ga, gb), nil
}

func (SimpleFeatures) Contains(a, b geom.Geometry) (bool, error) {
	ga, gb, err := convertPair(a, b)
	if err != nil {
		return false, err
	}
	return sf.Contains(ga, gb)
}

func (SimpleFeatures) Equals(a, b geom.Geometry) (bool, error) {
	ga, gb, err := convertPair(a, b)
	if err != nil {
		return false, err
	}
	return sf.Equals(ga, gb)
}

func (SimpleFeatures) Touches(a, b geom.Geometry) (bool, error) {
	ga, gb, err := convertPair(a, b)
	if err != nil {
		return false, err
	}
	return sf.Touches(ga, gb)
}

func (SimpleFeatures) Relate(a, b geom.Geometry) (Matrix, error) {
	ga, gb, err := convertPair(a, b)
	if err != nil {
		return "", err
	}
	s, err := sf.Relate(ga, gb)
	if err != nil {
		return "", fmt.Errorf("relate: %w", err)
	}
	return ParseMatrix(s)
}

// Validate：拓扑有效性校验（环自相交、重复点退化等），供数据源在进入引擎前过滤
func Validate(g geom.Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	switch g.Kind() {
	case geom.KindPolygon:
		return sf.NewPolygon([]sf.LineString{sf.NewLineString(sequence(g))}).Validate()
	case geom.KindLineString:
		return sf.NewLineString(sequence(g)).Validate()
	}
	return ErrEmptyGeometry
}

func convertPair(a, b geom.Geometry) (sf.Geometry, sf.Geometry, error) {
	ga, err := convert(a)
	if err != nil {
		return sf.Geometry{}, sf.Geometry{}, err
	}
	gb, err := convert(b)
	if err != nil {
		return sf.Geometry{}, sf.Geometry{}, err
	}
	return ga, gb, nil
}

func convert(g geom.Geometry) (sf.Geometry, error) {
	if g.IsEmpty() {
		return sf.Geometry{}, ErrEmptyGeometry
	}
	switch g.Kind() {
	case geom.KindPolygon:
		return sf.NewPolygon([]sf.LineString{sf.NewLineString(sequence(g))}).AsGeometry(), nil
	case geom.KindLineString:
		return sf.NewLineString(sequence(g)).AsGeometry(), nil
	}
	return sf.Geometry{}, fmt.Errorf("unsupported kind %s", g.Kind())
}

func sequence(g geom.Geometry) sf.Sequence {
	pts := g.Points()
	coords := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		coords = append(coords, p.X, p.Y)
	}
	return sf.NewSequence(coords, sf.DimXY)
}
