package source

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"overlap-api/internal/geom"
)

var (
	ErrUnsupported = errors.New("unsupported geometry")
	ErrNoGeometry  = errors.New("no geometry found")
	ErrInvalid     = errors.New("invalid geometry")
)

// 标准 GeoJSON 几何类型；其余 type 视为不支持而非解析失败
var geometryTypes = map[string]bool{
	"Point": true, "MultiPoint": true,
	"LineString": true, "MultiLineString": true,
	"Polygon": true, "MultiPolygon": true,
	"GeometryCollection": true,
}

// 文档注释：从 GeoJSON 文本取出第一个可用几何
// 约束：接受 FeatureCollection / Feature / 裸几何；仅 Polygon（只取外环）与 LineString，其余类型跳过；
// 坐标按 [经度, 纬度] 读取，第三维忽略。
func decodeGeoJSON(b []byte) (geom.Geometry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return geom.Geometry{}, err
	}
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			return geom.Geometry{}, err
		}
		var firstErr error
		for _, f := range fc.Features {
			g, err := convert(f.Geometry)
			if err == nil {
				return g, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		if firstErr != nil {
			return geom.Geometry{}, firstErr
		}
		return geom.Geometry{}, ErrNoGeometry
	case "Feature":
		f, err := geojson.UnmarshalFeature(b)
		if err != nil {
			return geom.Geometry{}, err
		}
		return convert(f.Geometry)
	case "":
		return geom.Geometry{}, ErrNoGeometry
	}
	if !geometryTypes[head.Type] {
		return geom.Geometry{}, fmt.Errorf("%w: %s", ErrUnsupported, head.Type)
	}
	g, err := geojson.UnmarshalGeometry(b)
	if err != nil {
		return geom.Geometry{}, err
	}
	return convert(g.Geometry())
}

func convert(g orb.Geometry) (geom.Geometry, error) {
	switch v := g.(type) {
	case nil:
		return geom.Geometry{}, ErrNoGeometry
	case orb.Polygon:
		if len(v) == 0 {
			return geom.Geometry{}, ErrNoGeometry
		}
		return invalid(geom.NewPolygon(points(v[0])))
	case orb.LineString:
		return invalid(geom.NewLineString(points(v)))
	}
	return geom.Geometry{}, fmt.Errorf("%w: %s", ErrUnsupported, g.GeoJSONType())
}

func points(ps []orb.Point) []geom.Point {
	out := make([]geom.Point, len(ps))
	for i, p := range ps {
		out[i] = geom.Point{X: p.X(), Y: p.Y()}
	}
	return out
}

func invalid(g geom.Geometry, err error) (geom.Geometry, error) {
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return g, nil
}
