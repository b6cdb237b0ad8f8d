package render

import (
	"bytes"
	"fmt"
	"strings"

	"patientcluster/internal/clustering"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ReportInput is the run summary written to the Markdown report.
type ReportInput struct {
	Filename string
	Rows     int
	Columns  int
	Features int
	Dropped  []string
	Methods  []clustering.Result
	Best     clustering.Result
}

// Report writes the run summary as Markdown.
func Report(in ReportInput) []byte {
	var b bytes.Buffer
	b.WriteString("## Run summary\n\n")
	fmt.Fprintf(&b, "- File: %s\n", escapeMarkdown(in.Filename))
	fmt.Fprintf(&b, "- Rows: %d\n", in.Rows)
	fmt.Fprintf(&b, "- Columns: %d\n", in.Columns)
	fmt.Fprintf(&b, "- Encoded features: %d\n", in.Features)
	if len(in.Dropped) > 0 {
		names := make([]string, len(in.Dropped))
		for i, d := range in.Dropped {
			names[i] = escapeMarkdown(d)
		}
		fmt.Fprintf(&b, "- Ignored columns: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\n| Method | Silhouette Score | Clusters | Noise points |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, m := range in.Methods {
		name := string(m.Method)
		if m.Method == in.Best.Method {
			name = "**" + name + "**"
		}
		fmt.Fprintf(&b, "| %s | %.3f | %d | %d |\n", name, m.Score, m.Clusters, m.Noise)
	}

	fmt.Fprintf(&b, "\nBest clustering method selected: **%s** (silhouette %.3f)\n", in.Best.Method, in.Best.Score)
	return b.Bytes()
}

// ReportHTML converts a Markdown report to an HTML fragment.
func ReportHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML(md, p, renderer)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "|", `\|`,
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
