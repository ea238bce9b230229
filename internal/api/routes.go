// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"overlap-api/internal/logger"
	"overlap-api/internal/metrics"
	"overlap-api/internal/source"
)

// 可用几何不足两个时报告接口返回的提示
const InsufficientMsg = "Need at least two geometry files"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// 文档注释：错误到 HTTP 状态的映射
// 约束：目录不存在/非目录 → 404；坐标系未知 → 400；截止时间 → 504；其余 → 500。
func statusOf(err error) int {
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, source.ErrNotDir):
		return http.StatusNotFound
	case errors.Is(err, source.ErrUnknownCoordSys):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// outcomeOf：HTTP 状态到指标 outcome 标签（snake_case）
func outcomeOf(status int) string {
	switch status {
	case http.StatusOK:
		return "ok"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusGatewayTimeout:
		return "timeout"
	}
	return "error"
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(svc *Service) *http.ServeMux {
	apiMux := http.NewServeMux()

	run := func(endpoint string, w http.ResponseWriter, r *http.Request) (*Report, bool) {
		if r.Method != http.MethodGet {
			metrics.RequestsTotal.WithLabelValues(endpoint, outcomeOf(http.StatusMethodNotAllowed)).Inc()
			w.Header().Set("allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return nil, false
		}
		folder := r.URL.Query().Get("folderPath")
		if folder == "" {
			metrics.RequestsTotal.WithLabelValues(endpoint, outcomeOf(http.StatusBadRequest)).Inc()
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "folderPath is required"})
			return nil, false
		}
		coordSys := svc.opts.CoordSys
		if cs := r.URL.Query().Get("coordSys"); cs != "" {
			coordSys = cs
		}
		rep, err := svc.RunWith(r.Context(), folder, coordSys)
		if err != nil {
			status := statusOf(err)
			metrics.RequestsTotal.WithLabelValues(endpoint, outcomeOf(status)).Inc()
			logger.L().Debug("overlap_request_error", "endpoint", endpoint, "status", status, "err", err)
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return nil, false
		}
		metrics.RequestsTotal.WithLabelValues(endpoint, outcomeOf(http.StatusOK)).Inc()
		return rep, true
	}

	check := func(w http.ResponseWriter, r *http.Request) {
		rep, ok := run("check", w, r)
		if !ok {
			return
		}
		lines := rep.Lines
		if lines == nil {
			lines = []string{}
		}
		writeJSON(w, http.StatusOK, lines)
	}

	report := func(w http.ResponseWriter, r *http.Request) {
		rep, ok := run("report", w, r)
		if !ok {
			return
		}
		if rep.Insufficient() {
			writeJSON(w, http.StatusOK, map[string]map[string]string{"overlap": {"error": InsufficientMsg}})
			return
		}
		groups := rep.Groups
		if groups == nil {
			groups = map[string]string{}
		}
		writeJSON(w, http.StatusOK, map[string]map[string]string{"overlap": groups})
	}

	// /kml/* 为旧客户端使用的路径，行为与 /overlap/* 一致
	for _, prefix := range []string{"/overlap", "/kml"} {
		apiMux.HandleFunc(prefix+"/check-partial-overlaps", check)
		apiMux.HandleFunc(prefix+"/overlap-report", report)
	}

	return apiMux
}
