package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/result"
)

// fileRow is one per-file row on the index page plus its rendered,
// syntax-highlighted source (empty if the source file could not be read
// from disk, e.g. when built from a stripped binary with no sibling
// sources).
type fileRow struct {
	result.FileSummary
	HighlightedSource template.HTML
}

const indexTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>wasmut report</title>
<style>
body { font-family: sans-serif; }
table { border-collapse: collapse; }
td, th { padding: 2px 8px; border: 1px solid #ccc; }
.killed { color: green; } .alive { color: red; font-weight: bold; }
.timeout { color: #b8860b; } .error { color: purple; } .skipped { color: #999; }
</style></head><body>
<h1>wasmut mutation report</h1>
<p>overall score: <strong>{{printf "%.1f" .Overall.Score}}%</strong>
 (killed={{.Overall.Killed}} alive={{.Overall.Alive}} timeout={{.Overall.Timeout}} error={{.Overall.Error}} skipped={{.Overall.Skipped}})</p>
<table>
<tr><th>file</th><th>killed</th><th>alive</th><th>timeout</th><th>error</th><th>skipped</th><th>score</th></tr>
{{range .Files}}<tr>
<td><a href="#{{.File}}">{{.File}}</a></td>
<td class="killed">{{.Counts.Killed}}</td><td class="alive">{{.Counts.Alive}}</td>
<td class="timeout">{{.Counts.Timeout}}</td><td class="error">{{.Counts.Error}}</td>
<td class="skipped">{{.Counts.Skipped}}</td><td>{{printf "%.1f" .Counts.Score}}%</td>
</tr>{{end}}
</table>
{{range .Files}}<h2 id="{{.File}}">{{.File}}</h2>
{{if .HighlightedSource}}{{.HighlightedSource}}{{else}}<p><em>source unavailable</em></p>{{end}}
{{end}}
</body></html>`

// HTML renders summary (with per-file source highlighted via chroma,
// when readable from disk relative to sourceRoot) to w. pathRewrite is
// applied to the displayed file name only (spec.md §6): the source is
// still read from disk using the raw, unrewritten DWARF path.
func HTML(w io.Writer, summary result.Summary, sourceRoot string, pathRewrite config.PathRewrite) error {
	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return fmt.Errorf("report: parsing template: %w", err)
	}

	rw := newRewriter(pathRewrite)
	rows := make([]fileRow, 0, len(summary.Files))
	for _, fs := range summary.Files {
		row := fileRow{FileSummary: *fs}
		if src, ok := readSource(sourceRoot, fs.File); ok {
			highlighted, err := highlightSource(fs.File, src)
			if err == nil {
				row.HighlightedSource = template.HTML(highlighted)
			}
		}
		row.File = rw.apply(fs.File)
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].File < rows[j].File })

	data := struct {
		Overall result.Counts
		Files   []fileRow
	}{Overall: summary.Overall, Files: rows}
	return tmpl.Execute(w, data)
}

func readSource(root, file string) ([]byte, bool) {
	if root == "" {
		return nil, false
	}
	b, err := os.ReadFile(root + string(os.PathSeparator) + file)
	if err != nil {
		return nil, false
	}
	return b, true
}

func highlightSource(file string, src []byte) (string, error) {
	lexer := lexers.Match(file)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := lexer.Tokenise(nil, string(src))
	if err != nil {
		return "", fmt.Errorf("tokenising: %w", err)
	}
	style := chromastyles.Get("github")
	formatter := html.New(html.WithLineNumbers(true))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", fmt.Errorf("formatting: %w", err)
	}
	return buf.String(), nil
}
