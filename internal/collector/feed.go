package collector

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/mmcdole/gofeed"
)

const (
	feedUserAgent      = "FeedWatchBot/1.0"
	feedDefaultTimeout = 20 * time.Second
)

// FeedFetcher 用 colly 下载订阅源，再交给 gofeed 解析（RSS / Atom / JSON Feed 均可）
type FeedFetcher struct {
	Timeout   time.Duration
	UserAgent string
}

func NewFeedFetcher(timeout time.Duration) *FeedFetcher {
	return &FeedFetcher{Timeout: timeout, UserAgent: feedUserAgent}
}

func (f *FeedFetcher) Fetch(ctx context.Context, source string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = feedDefaultTimeout
	}
	// colly 不感知 ctx，这里用两者中更早的截止时间
	if deadline, ok := ctx.Deadline(); ok {
		if remain := time.Until(deadline); remain < timeout {
			timeout = remain
		}
	}
	ua := f.UserAgent
	if ua == "" {
		ua = feedUserAgent
	}

	// 每次新建 collector：colly 会记住访问过的 URL，复用会导致第二轮直接被拒绝
	c := colly.NewCollector(colly.UserAgent(ua))
	c.SetRequestTimeout(timeout)

	var (
		body     []byte
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(source); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("feed: fetch %s: %w", source, fetchErr)
	}

	return parseFeed(source, body)
}

func parseFeed(source string, body []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("feed: %s: empty response body", source)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", source, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		link := it.Link
		if link == "" && len(it.Links) > 0 {
			link = strings.TrimSpace(it.Links[0])
		}
		// 标题不做任何清洗，查重严格按原文比较
		entries = append(entries, Entry{Title: it.Title, Link: link})
	}
	return entries, nil
}
