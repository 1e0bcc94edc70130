package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultLimit 每个源只取最新的若干条
const DefaultLimit = 5

// SourceFailure 记录某个源本轮拉取失败的原因；失败不会中断整轮采集
type SourceFailure struct {
	Source string
	Err    error
}

// Result 是一轮采集的结果：Items 按"源声明顺序 -> 源内顺序"平铺
type Result struct {
	Items    []Item
	Failures []SourceFailure
	Sources  int
}

// Options 控制采集行为，零值可用
type Options struct {
	Limit       int           // 每源上限，<0 表示不截断
	Timeout     time.Duration // 单个源的超时，<=0 表示只受 ctx 约束
	Concurrency int           // 并发拉取数，<=0 表示顺序拉取
	Log         *logrus.Entry
}

// Collect 拉取所有源并按声明顺序拼接结果。
// 可以并发拉取，但结果总是回填到源对应的下标，保证输出顺序确定。
func Collect(ctx context.Context, f Fetcher, sources []string, opts Options) Result {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	type sourceResult struct {
		entries []Entry
		err     error
	}
	results := make([]sourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			log.WithField("source", src).Info("checking feed")

			fctx := gctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, opts.Timeout)
				defer cancel()
			}

			entries, err := f.Fetch(fctx, src)
			results[i] = sourceResult{entries: entries, err: err}
			// 单个源失败不影响其它源，因此总是返回 nil
			return nil
		})
	}
	_ = g.Wait()

	out := Result{Items: make([]Item, 0, len(sources)*max(opts.Limit, 0)), Sources: len(sources)}
	for i, src := range sources {
		r := results[i]
		if r.err != nil {
			log.WithField("source", src).WithError(r.err).Warn("feed unavailable, treating as empty")
			out.Failures = append(out.Failures, SourceFailure{Source: src, Err: r.err})
			continue
		}

		entries := r.entries
		if opts.Limit >= 0 && len(entries) > opts.Limit {
			entries = entries[:opts.Limit]
		}
		if len(entries) == 0 {
			log.WithField("source", src).Info("feed returned 0 items")
		}
		for _, e := range entries {
			out.Items = append(out.Items, Item{Title: e.Title, Link: e.Link, Source: src})
		}
	}
	return out
}
