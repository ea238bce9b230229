package source

import (
	"errors"
	"math"
	"strings"

	"overlap-api/internal/geom"
)

var ErrUnknownCoordSys = errors.New("unknown coordinate system")

// 文档注释：坐标系归一化（GCJ-02/BD-09 → WGS84）
// 背景：国内互联网地图导出的文件常为 GCJ-02/BD-09；同一目录须处于同一平面坐标系，引擎本身不做投影转换。
// 约束：简化实现，误差在数十米级；空串或 WGS84 表示原样返回（nil）。
func Normalizer(coordSys string) (func(geom.Point) geom.Point, error) {
	switch strings.ToUpper(strings.TrimSpace(coordSys)) {
	case "", "WGS84", "WGS-84":
		return nil, nil
	case "GCJ-02", "GCJ02":
		return func(p geom.Point) geom.Point {
			lat, lon := gcj02ToWGS84(p.Y, p.X)
			return geom.Point{X: lon, Y: lat}
		}, nil
	case "BD-09", "BD09":
		return func(p geom.Point) geom.Point {
			lat, lon := bd09ToWGS84(p.Y, p.X)
			return geom.Point{X: lon, Y: lat}
		}, nil
	}
	return nil, ErrUnknownCoordSys
}

func gcj02ToWGS84(lat, lon float64) (float64, float64) {
	glat, glon := transformGCJ(lat, lon)
	return lat*2 - glat, lon*2 - glon
}

func bd09ToWGS84(lat, lon float64) (float64, float64) {
	x := lon - 0.0065
	y := lat - 0.006
	z := math.Sqrt(x*x+y*y) - 0.00002*math.Sin(y*math.Pi)
	theta := math.Atan2(y, x) - 0.000003*math.Cos(x*math.Pi)
	return gcj02ToWGS84(z*math.Sin(theta), z*math.Cos(theta))
}

func transformGCJ(lat, lon float64) (float64, float64) {
	if outOfChina(lat, lon) {
		return lat, lon
	}
	dLat := transformLat(lon-105.0, lat-35.0)
	dLon := transformLon(lon-105.0, lat-35.0)
	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - 0.00669342162296594323*magic*magic
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((6378245.0 * (1 - 0.00669342162296594323)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (6378245.0 / sqrtMagic * math.Cos(radLat) * math.Pi)
	return lat + dLat, lon + dLon
}

func outOfChina(lat, lon float64) bool {
	return lon < 72.004 || lon > 137.8347 || lat < 0.8293 || lat > 55.8271
}

func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
