package processor

import "github.com/LJTian/feedwatch/internal/collector"

// SeenIndex 标题 -> 出现过该标题的源（按遇到的先后顺序）
type SeenIndex map[string][]string

// Sources 返回某标题对应的源列表副本
func (s SeenIndex) Sources(title string) []string {
	return append([]string(nil), s[title]...)
}

// Detect 顺序扫描一遍，按标题精确匹配查重。
// 第一次出现的条目永远不会被标记；第二次及之后出现的条目按原顺序进入 duplicates。
// 同一个源里重复出现的标题同样计入。
func Detect(items []collector.Item) ([]collector.Item, SeenIndex) {
	duplicates := make([]collector.Item, 0)
	seen := make(SeenIndex, len(items))

	for _, it := range items {
		if sources, ok := seen[it.Title]; ok {
			seen[it.Title] = append(sources, it.Source)
			duplicates = append(duplicates, it)
			continue
		}
		seen[it.Title] = []string{it.Source}
	}

	return duplicates, seen
}
