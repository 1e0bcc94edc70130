package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/LJTian/feedwatch/internal/collector"
	"github.com/LJTian/feedwatch/internal/processor"
)

// DefaultTitle 报告与邮件标题里使用的通讯名称
const DefaultTitle = "Saskatoon Today Newsletter"

// Report 是单轮检查的只读视图，Render 之后即可丢弃
type Report struct {
	Title      string
	Items      []collector.Item
	Duplicates []collector.Item
	Seen       processor.SeenIndex
	// Failures 为空时报告中不出现"拉取失败"段落
	Failures []collector.SourceFailure
	Sources  int
}

// Subject 生成邮件主题
func Subject(title string) string {
	if title == "" {
		title = DefaultTitle
	}
	return "Duplicate Article Check - " + title
}

type duplicateView struct {
	Title   string
	Link    string
	Sources []string
}

type failureView struct {
	Source string
	Reason string
}

type pageView struct {
	Title      string
	Items      []collector.Item
	Duplicates []duplicateView
	Failures   []failureView
	Sources    int
}

var page = template.Must(template.New("report").Parse(pageTemplate))

// Render 输出 HTML 报告；同样的输入总是得到逐字节相同的输出
func Render(r Report) (string, error) {
	v := pageView{
		Title:    r.Title,
		Items:    r.Items,
		Sources:  r.Sources,
		Failures: make([]failureView, 0, len(r.Failures)),
	}
	if v.Title == "" {
		v.Title = DefaultTitle
	}
	for _, d := range r.Duplicates {
		// 源列表取自 seen，因此包含首次出现、本身未被标记的那个源
		v.Duplicates = append(v.Duplicates, duplicateView{
			Title:   d.Title,
			Link:    d.Link,
			Sources: r.Seen.Sources(d.Title),
		})
	}
	for _, f := range r.Failures {
		reason := "unknown error"
		if f.Err != nil {
			reason = f.Err.Error()
		}
		v.Failures = append(v.Failures, failureView{Source: f.Source, Reason: reason})
	}
	if v.Sources < len(v.Failures) {
		v.Sources = len(v.Failures)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}
	return buf.String(), nil
}

const pageTemplate = `<html>
<head>
<style>
    body { font-family: Arial, sans-serif; }
    a.article-link { color: black !important; text-decoration: underline; }
    a.article-link.duplicate { font-weight: bold; }
    a.source-link { color: blue; text-decoration: none; padding: 5px; }
    .duplicate-source { color: blue; }
    .fetch-failure { color: #b00020; }
    ul { list-style-type: none; padding: 0; }
    li { margin-bottom: 15px; }
</style>
</head>
<body>
<h2>{{.Title}} - Duplicate Article Check</h2>
<p>Scanned {{len .Items}} articles and found {{len .Duplicates}} duplicates.</p>
{{- if .Failures}}
<p class="fetch-failure">{{len .Failures}} of {{.Sources}} sources could not be fetched.</p>
<h4>Sources that could not be fetched:</h4><ul>
{{- range .Failures}}
<li><a href="{{.Source}}" class="source-link">{{.Source}}</a> ({{.Reason}})</li>
{{- end}}
</ul>
{{- end}}
{{- if .Duplicates}}
<h4>Duplicate Articles Found:</h4><ul>
{{- range .Duplicates}}
<li><a href="{{.Link}}" class="article-link duplicate">{{.Title}}</a> (Found in: {{range $i, $s := .Sources}}{{if $i}},{{end}}<a href="{{$s}}" class="source-link duplicate-source">{{$s}}</a>{{end}})</li>
{{- end}}
</ul>
{{- else}}
<p>No duplicates found.</p>
{{- end}}
<div style="margin-bottom: 20px;"></div>
<p>Articles Checked:</p><ul>
{{- range .Items}}
<li><a href="{{.Link}}" class="article-link">{{.Title}}</a><br>
Source: <a href="{{.Source}}" class="source-link">{{.Source}}</a></li>
{{- end}}
</ul>
</body>
</html>
`
