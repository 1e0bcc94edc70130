package collector

import "context"

// Entry 是数据源返回的单条原始条目，尚未打上来源标签
type Entry struct {
	Title string
	Link  string
}

// Item 统一采集后的基础结构；Title 是查重键，按原样比较（区分大小写与空白）
type Item struct {
	Title  string
	Link   string
	Source string
}

// Fetcher 抽象"从某个订阅源拉取条目"的能力，返回顺序即源本身的顺序（通常最新在前）
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]Entry, error)
}

// FetcherFunc 便于用普通函数实现 Fetcher（测试里常用）
type FetcherFunc func(ctx context.Context, source string) ([]Entry, error)

func (f FetcherFunc) Fetch(ctx context.Context, source string) ([]Entry, error) {
	return f(ctx, source)
}
