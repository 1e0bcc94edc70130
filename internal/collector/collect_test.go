package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeFeeds 为每个源返回固定条目，标题形如 "<source>-<n>"
func fakeFeeds(n int) FetcherFunc {
	return func(ctx context.Context, source string) ([]Entry, error) {
		out := make([]Entry, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, Entry{
				Title: fmt.Sprintf("%s-%d", source, i),
				Link:  fmt.Sprintf("https://example.com/%s/%d", source, i),
			})
		}
		return out, nil
	}
}

func TestCollectTruncatesAndTagsInSourceOrder(t *testing.T) {
	res := Collect(context.Background(), fakeFeeds(8), []string{"a", "b"}, Options{Limit: DefaultLimit, Log: quietLog()})

	if len(res.Items) != 10 {
		t.Fatalf("len(Items) = %d, want 10", len(res.Items))
	}
	for i, it := range res.Items {
		wantSrc := "a"
		if i >= 5 {
			wantSrc = "b"
		}
		wantTitle := fmt.Sprintf("%s-%d", wantSrc, i%5)
		if it.Source != wantSrc || it.Title != wantTitle {
			t.Fatalf("Items[%d] = %+v, want source %q title %q", i, it, wantSrc, wantTitle)
		}
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if res.Sources != 2 {
		t.Fatalf("Sources = %d, want 2", res.Sources)
	}
}

func TestCollectConcurrentKeepsDeclarationOrder(t *testing.T) {
	sources := []string{"s0", "s1", "s2", "s3", "s4"}
	// 越靠前的源越慢，若未回填顺序则结果必然乱序
	f := FetcherFunc(func(ctx context.Context, source string) ([]Entry, error) {
		delay := time.Duration(len(sources)-int(source[1]-'0')) * 10 * time.Millisecond
		time.Sleep(delay)
		return []Entry{{Title: source, Link: "l-" + source}}, nil
	})

	res := Collect(context.Background(), f, sources, Options{Limit: 5, Concurrency: len(sources), Log: quietLog()})
	if len(res.Items) != len(sources) {
		t.Fatalf("len(Items) = %d, want %d", len(res.Items), len(sources))
	}
	for i, src := range sources {
		if res.Items[i].Source != src {
			t.Fatalf("Items[%d].Source = %q, want %q", i, res.Items[i].Source, src)
		}
	}
}

func TestCollectFailedSourceIsEmptyNotFatal(t *testing.T) {
	boom := errors.New("connection refused")
	f := FetcherFunc(func(ctx context.Context, source string) ([]Entry, error) {
		if source == "down" {
			return nil, boom
		}
		return []Entry{{Title: "T", Link: "L"}}, nil
	})

	res := Collect(context.Background(), f, []string{"up1", "down", "up2"}, Options{Limit: 5, Log: quietLog()})
	if len(res.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(res.Items))
	}
	if res.Items[0].Source != "up1" || res.Items[1].Source != "up2" {
		t.Fatalf("unexpected item sources: %+v", res.Items)
	}
	if len(res.Failures) != 1 || res.Failures[0].Source != "down" || !errors.Is(res.Failures[0].Err, boom) {
		t.Fatalf("Failures = %+v, want one failure for \"down\"", res.Failures)
	}
}

func TestCollectEmptyFeedIsNotFailure(t *testing.T) {
	res := Collect(context.Background(), fakeFeeds(0), []string{"quiet"}, Options{Limit: 5, Log: quietLog()})
	if len(res.Items) != 0 || len(res.Failures) != 0 {
		t.Fatalf("got items=%v failures=%v, want both empty", res.Items, res.Failures)
	}
}

func TestCollectLimitEdges(t *testing.T) {
	res := Collect(context.Background(), fakeFeeds(3), []string{"a"}, Options{Limit: 0, Log: quietLog()})
	if len(res.Items) != 0 {
		t.Fatalf("limit 0: len(Items) = %d, want 0", len(res.Items))
	}
	res = Collect(context.Background(), fakeFeeds(7), []string{"a"}, Options{Limit: -1, Log: quietLog()})
	if len(res.Items) != 7 {
		t.Fatalf("limit -1: len(Items) = %d, want 7", len(res.Items))
	}
}

func TestCollectAppliesPerSourceTimeout(t *testing.T) {
	var sawDeadline atomic.Bool
	f := FetcherFunc(func(ctx context.Context, source string) ([]Entry, error) {
		if _, ok := ctx.Deadline(); ok {
			sawDeadline.Store(true)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})

	res := Collect(context.Background(), f, []string{"slow"}, Options{Limit: 5, Timeout: 20 * time.Millisecond, Log: quietLog()})
	if !sawDeadline.Load() {
		t.Fatalf("fetch context had no deadline")
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, context.DeadlineExceeded) {
		t.Fatalf("Failures = %+v, want deadline exceeded", res.Failures)
	}
}

func TestCollectNoSources(t *testing.T) {
	res := Collect(context.Background(), fakeFeeds(1), nil, Options{Limit: 5, Log: quietLog()})
	if len(res.Items) != 0 || len(res.Failures) != 0 || res.Sources != 0 {
		t.Fatalf("unexpected result for no sources: %+v", res)
	}
}
