package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"overlap-api/internal/cache"
	"overlap-api/internal/logger"
	"overlap-api/internal/metrics"
	"overlap-api/internal/overlap"
	"overlap-api/internal/source"
)

// 文档注释：一次检测的对外报告
// 约束：字段稳定；Groups 为 键 → 逗号拼接成员，encoding/json 按键排序输出。
type Report struct {
	Folder  string            `json:"folder" yaml:"folder"`
	Lines   []string          `json:"lines" yaml:"lines"`
	Groups  map[string]string `json:"groups" yaml:"groups"`
	Pairs   []overlap.Pair    `json:"pairs" yaml:"pairs"`
	Usable  int               `json:"usable" yaml:"usable"`
	Skipped []source.Skip     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Insufficient：可用几何少于两个
func (r *Report) Insufficient() bool { return r.Usable < 2 }

// 文档注释：检测服务（目录 → 数据源 → 引擎 → 报告）
// 约束：每次 Run 新建快照与索引；timeout>0 时对整次调用施加外部截止时间；cache 可为 nil。
type Service struct {
	eng     *overlap.Engine
	reports *cache.Reports
	opts    source.Options
	timeout time.Duration
	log     *slog.Logger
}

func NewService(eng *overlap.Engine, reports *cache.Reports, opts source.Options, timeout time.Duration) *Service {
	if eng == nil {
		eng = overlap.New(nil)
	}
	return &Service{eng: eng, reports: reports, opts: opts, timeout: timeout, log: logger.L()}
}

// Run：按默认坐标系检测目录
func (s *Service) Run(ctx context.Context, folder string) (*Report, error) {
	return s.RunWith(ctx, folder, s.opts.CoordSys)
}

// RunWith：指定坐标系检测目录；目录不存在/非目录/坐标系未知/截止时间到达时返回 error
func (s *Service) RunWith(ctx context.Context, folder, coordSys string) (*Report, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	runID := uuid.NewString()
	l := s.log.With("run_id", runID, "folder", folder)
	tBegin := time.Now()

	opts := s.opts
	opts.CoordSys = coordSys
	listing, err := source.List(folder, opts)
	if err != nil {
		l.Info("overlap_list_error", "err", err)
		return nil, err
	}
	key := cache.Key(coordSys, listing.Fingerprint)
	if b, tier, ok := s.reports.Get(ctx, key); ok {
		var rep Report
		if err := json.Unmarshal(b, &rep); err == nil {
			l.Debug("overlap_cache_hit", "tier", tier)
			return &rep, nil
		}
	}

	type outcome struct {
		rep *Report
		err error
	}
	// 引擎为同步计算，不感知 ctx：截止时间到达后调用方立即返回，后台检测继续跑完，
	// 其占用通过 overlap_detect_inflight / overlap_detect_abandoned_total 可见
	done := make(chan outcome, 1)
	metrics.DetectInflight.Inc()
	go func() {
		defer metrics.DetectInflight.Dec()
		rep, err := s.detect(ctx, listing, opts)
		if ctx.Err() != nil {
			l.Info("overlap_detect_abandoned_done", "elapsed_ms", time.Since(tBegin).Milliseconds())
		}
		done <- outcome{rep, err}
	}()
	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		metrics.DetectAbandonedTotal.Inc()
		l.Warn("overlap_deadline", "err", ctx.Err(), "elapsed_ms", time.Since(tBegin).Milliseconds())
		return nil, ctx.Err()
	}
	if out.err != nil {
		l.Error("overlap_detect_error", "err", out.err)
		return nil, out.err
	}
	metrics.DetectDurationMs.Observe(float64(time.Since(tBegin).Milliseconds()))
	metrics.PairsFound.Observe(float64(len(out.rep.Pairs)))
	if b, err := json.Marshal(out.rep); err == nil {
		s.reports.Set(ctx, key, b)
	}
	l.Info("overlap_detect_ok",
		"usable", out.rep.Usable,
		"skipped", len(out.rep.Skipped),
		"pairs", len(out.rep.Pairs),
		"ms", time.Since(tBegin).Milliseconds(),
	)
	return out.rep, nil
}

func (s *Service) detect(ctx context.Context, listing *source.Listing, opts source.Options) (*Report, error) {
	snap, err := listing.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	res, err := s.eng.Detect(snap.Entries)
	if err != nil {
		return nil, err
	}
	metrics.CandidatesTotal.Add(float64(res.Stats.Candidates))
	metrics.EvaluatedTotal.Add(float64(res.Stats.Evaluated))
	pairs := res.Pairs
	if pairs == nil {
		pairs = []overlap.Pair{}
	}
	return &Report{
		Folder:  listing.Dir,
		Lines:   res.Lines(),
		Groups:  res.GroupMap(),
		Pairs:   pairs,
		Usable:  res.Usable,
		Skipped: snap.Skipped,
	}, nil
}
