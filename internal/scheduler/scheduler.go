package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LJTian/feedwatch/internal/collector"
	"github.com/LJTian/feedwatch/internal/mailer"
	"github.com/LJTian/feedwatch/internal/processor"
	"github.com/LJTian/feedwatch/internal/report"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Deliverer 投递渲染好的报告；为 nil 时只生成报告不发送
type Deliverer interface {
	Deliver(ctx context.Context, subject, body string) error
}

// Options 一轮检查所需的全部参数，由调用方组装
type Options struct {
	Sources      []string
	Limit        int
	FetchTimeout time.Duration
	Concurrency  int
	Title        string
}

// Outcome 一轮检查的结果；DeliveryErr 仅用于记录，报告生成即视为本轮完成
type Outcome struct {
	RunID       string
	Items       []collector.Item
	Duplicates  []collector.Item
	Seen        processor.SeenIndex
	Failures    []collector.SourceFailure
	Subject     string
	Body        string
	RenderErr   error
	Delivered   bool
	DeliveryErr error
}

type Scheduler struct {
	cron      *cron.Cron
	job       cron.Job
	fetcher   collector.Fetcher
	deliverer Deliverer
	opts      Options
	log       *logrus.Entry

	// ctx 在 Stop 超过宽限期后取消，用于中断进行中的拉取与发送
	ctx    context.Context
	cancel context.CancelFunc
	// wg 跟踪不经 cron 触发的首轮执行
	wg sync.WaitGroup
}

func New(spec string, fetcher collector.Fetcher, deliverer Deliverer, opts Options, log *logrus.Entry) (*Scheduler, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "scheduler")

	c := cron.New()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:      c,
		fetcher:   fetcher,
		deliverer: deliverer,
		opts:      opts,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	// 首轮与定时任务共用同一个 job，上一轮未结束时跳过，两轮检查不会重叠
	s.job = cron.SkipIfStillRunning(cron.DiscardLogger)(cron.FuncJob(s.runScheduled))

	if spec != "" {
		if _, err := c.AddJob(spec, s.job); err != nil {
			cancel()
			return nil, err
		}
	}

	return s, nil
}

// Start 启动定时任务；runNow 为 true 时立即在后台执行一轮
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	if runNow {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.job.Run()
		}()
	}
}

// Stop 停止调度并等待正在执行的检查结束；ctx 到期后取消仍在进行的检查再等待其返回
func (s *Scheduler) Stop(ctx context.Context) {
	cronCtx := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("shutdown grace period expired, canceling running check")
		s.cancel()
		<-done
	}
	s.cancel()
}

func (s *Scheduler) runScheduled() {
	s.RunOnce(s.ctx)
}

// RunOnce 对外暴露的单次执行入口：采集 -> 查重 -> 渲染 -> 投递
func (s *Scheduler) RunOnce(ctx context.Context) Outcome {
	runID := uuid.NewString()
	log := s.log.WithField("run_id", runID)
	log.WithField("sources", len(s.opts.Sources)).Info("start duplicate check")

	res := collector.Collect(ctx, s.fetcher, s.opts.Sources, collector.Options{
		Limit:       s.opts.Limit,
		Timeout:     s.opts.FetchTimeout,
		Concurrency: s.opts.Concurrency,
		Log:         log.WithField("component", "collector"),
	})

	// 每轮都重新构建 seen，不跨轮保留状态
	dups, seen := processor.Detect(res.Items)

	out := Outcome{
		RunID:      runID,
		Items:      res.Items,
		Duplicates: dups,
		Seen:       seen,
		Failures:   res.Failures,
		Subject:    report.Subject(s.opts.Title),
	}

	body, err := report.Render(report.Report{
		Title:      s.opts.Title,
		Items:      res.Items,
		Duplicates: dups,
		Seen:       seen,
		Failures:   res.Failures,
		Sources:    res.Sources,
	})
	if err != nil {
		log.WithError(err).Error("render report failed")
		out.RenderErr = err
		return out
	}
	out.Body = body

	log.WithFields(logrus.Fields{
		"articles":   len(res.Items),
		"duplicates": len(dups),
		"failed":     len(res.Failures),
	}).Info("duplicate check done")

	if s.deliverer == nil {
		log.Info("no deliverer configured, skip delivery")
		return out
	}

	err = s.deliverer.Deliver(ctx, out.Subject, body)
	var missing *mailer.MissingConfigError
	switch {
	case err == nil:
		out.Delivered = true
	case errors.As(err, &missing):
		log.WithField("missing", missing.Fields).Error("missing email credentials, skip delivery")
	default:
		log.WithError(err).Error("failed to send email")
	}
	out.DeliveryErr = err
	return out
}
