package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlap-api/internal/cache"
	"overlap-api/internal/geom"
	"overlap-api/internal/metrics"
	"overlap-api/internal/overlap"
	"overlap-api/internal/source"
)

func polygonFile(minX, minY, maxX, maxY float64) string {
	b, _ := json.Marshal(map[string]any{
		"type": "Feature",
		"geometry": map[string]any{
			"type": "Polygon",
			"coordinates": [][][]float64{{
				{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
			}},
		},
	})
	return string(b)
}

func folder(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func get(t *testing.T, h http.Handler, path, dir string) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if dir != "" {
		target += "?folderPath=" + url.QueryEscape(dir)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func newTestService() *Service {
	return NewService(overlap.New(nil), cache.NewReports(16, time.Minute, nil), source.Options{Workers: 2}, 0)
}

func TestCheckPartialOverlaps(t *testing.T) {
	dir := folder(t, map[string]string{
		"A.geojson": polygonFile(0, 0, 2, 2),
		"B.geojson": polygonFile(1, 1, 3, 3),
		"C.geojson": polygonFile(10, 10, 11, 11),
		"D.geojson": polygonFile(11, 10, 12, 11),
	})
	h := BuildRoutes(newTestService())

	rec := get(t, h, "/overlap/check-partial-overlaps", dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("cache-control"))
	var lines []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	assert.Equal(t, []string{"Partial overlap between: A.geojson ⟷ B.geojson"}, lines)

	rec = get(t, h, "/overlap/overlap-report", dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overlap":{"A.geojson":"B.geojson"}}`, rec.Body.String())
}

func TestReportInsufficientInput(t *testing.T) {
	dir := folder(t, map[string]string{
		"A.geojson":   polygonFile(0, 0, 2, 2),
		"bad.geojson": "not json",
	})
	h := BuildRoutes(newTestService())

	rec := get(t, h, "/overlap/overlap-report", dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overlap":{"error":"Need at least two geometry files"}}`, rec.Body.String())

	rec = get(t, h, "/overlap/check-partial-overlaps", dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReportNoOverlapIsEmptyObject(t *testing.T) {
	dir := folder(t, map[string]string{
		"A.geojson": polygonFile(0, 0, 1, 1),
		"B.geojson": polygonFile(1, 0, 2, 1),
	})
	rec := get(t, BuildRoutes(newTestService()), "/overlap/overlap-report", dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overlap":{}}`, rec.Body.String())
}

func TestRequestErrors(t *testing.T) {
	h := BuildRoutes(newTestService())

	rec := get(t, h, "/overlap/check-partial-overlaps", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/overlap/check-partial-overlaps", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	dir := folder(t, map[string]string{"A.geojson": polygonFile(0, 0, 1, 1)})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/overlap/overlap-report?coordSys=EPSG:3857&folderPath="+url.QueryEscape(dir), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/overlap/overlap-report?folderPath="+url.QueryEscape(dir), nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServiceCachesByFingerprint(t *testing.T) {
	dir := folder(t, map[string]string{
		"A.geojson": polygonFile(0, 0, 2, 2),
		"B.geojson": polygonFile(1, 1, 3, 3),
	})
	reports := cache.NewReports(16, time.Minute, nil)
	svc := NewService(overlap.New(nil), reports, source.Options{}, time.Minute)
	ctx := context.Background()

	first, err := svc.Run(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, first.Pairs, 1)

	l, err := source.List(dir, source.Options{})
	require.NoError(t, err)
	_, tier, ok := reports.Get(ctx, cache.Key("", l.Fingerprint))
	require.True(t, ok)
	assert.Equal(t, "local", tier)

	second, err := svc.Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, first.Lines, second.Lines)
	assert.Equal(t, first.Groups, second.Groups)

	// 新文件改变指纹，结果随之更新
	require.NoError(t, os.WriteFile(filepath.Join(dir, "C.geojson"), []byte(polygonFile(2.5, 0, 4, 2.5)), 0o644))
	third, err := svc.Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, third.Usable)
	assert.Equal(t, map[string]string{"A.geojson": "B.geojson", "B.geojson": "C.geojson"}, third.Groups)
}

// slowRelations 模拟极慢的判定，用于验证外部截止时间
type slowRelations struct{}

func (slowRelations) Intersects(a, b geom.Geometry) (bool, error) {
	time.Sleep(200 * time.Millisecond)
	return true, nil
}
func (slowRelations) Contains(a, b geom.Geometry) (bool, error) { return false, nil }
func (slowRelations) Equals(a, b geom.Geometry) (bool, error)   { return false, nil }
func (slowRelations) Touches(a, b geom.Geometry) (bool, error)  { return false, nil }

func TestServiceDeadline(t *testing.T) {
	dir := folder(t, map[string]string{
		"A.geojson": polygonFile(0, 0, 2, 2),
		"B.geojson": polygonFile(1, 1, 3, 3),
	})
	svc := NewService(overlap.New(slowRelations{}), nil, source.Options{}, 20*time.Millisecond)
	inflight := testutil.ToFloat64(metrics.DetectInflight)
	abandoned := testutil.ToFloat64(metrics.DetectAbandonedTotal)
	timeouts := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("check", "timeout"))

	rec := get(t, BuildRoutes(svc), "/overlap/check-partial-overlaps", dir)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, abandoned+1, testutil.ToFloat64(metrics.DetectAbandonedTotal))
	assert.Equal(t, timeouts+1, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("check", "timeout")))

	// 后台检测跑完后 inflight 回落
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.DetectInflight) == inflight
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRequestOutcomeLabels(t *testing.T) {
	h := BuildRoutes(newTestService())
	dir := folder(t, map[string]string{"A.geojson": polygonFile(0, 0, 1, 1)})
	count := func(outcome string) float64 {
		return testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("report", outcome))
	}

	tests := []struct {
		name    string
		method  string
		query   string
		outcome string
	}{
		{"ok", http.MethodGet, "?folderPath=" + url.QueryEscape(dir), "ok"},
		{"missing folderPath", http.MethodGet, "", "bad_request"},
		{"unknown coordSys", http.MethodGet, "?coordSys=EPSG:3857&folderPath=" + url.QueryEscape(dir), "bad_request"},
		{"missing folder", http.MethodGet, "?folderPath=" + url.QueryEscape(filepath.Join(dir, "nope")), "not_found"},
		{"wrong method", http.MethodPost, "?folderPath=" + url.QueryEscape(dir), "method_not_allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := count(tt.outcome)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/overlap/overlap-report"+tt.query, nil))
			assert.Equal(t, before+1, count(tt.outcome))
		})
	}

	assert.Equal(t, "timeout", outcomeOf(http.StatusGatewayTimeout))
	assert.Equal(t, "error", outcomeOf(http.StatusInternalServerError))
}

func TestLegacyKMLPaths(t *testing.T) {
	dir := folder(t, map[string]string{
		"A.geojson": polygonFile(0, 0, 2, 2),
		"B.geojson": polygonFile(1, 1, 3, 3),
	})
	h := BuildRoutes(newTestService())

	rec := get(t, h, "/kml/check-partial-overlaps", dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Partial overlap between: A.geojson ⟷ B.geojson"]`, rec.Body.String())

	rec = get(t, h, "/kml/overlap-report", dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overlap":{"A.geojson":"B.geojson"}}`, rec.Body.String())
}
