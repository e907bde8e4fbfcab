package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"cotbench/internal/record"
)

// comparisonStyle is embedded in the page head.
const comparisonStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2328}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #d0d7de;padding:.4rem .6rem;text-align:left;vertical-align:top}
th{background:#f6f8fa}
td.yes{color:#1a7f37}td.no{color:#cf222e}td.err{color:#9a6700}
pre{white-space:pre-wrap;margin:0}
tr.prompt td{color:#57606a;border-top:none}`

// ComparisonPage returns a templ component rendering the comparison as HTML.
// Every value taken from the record is escaped.
func ComparisonPage(rec record.RunRecord) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := templ.EscapeString[string]
		var b bytes.Buffer
		b.WriteString("<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		fmt.Fprintf(&b, "<title>cotbench %s</title><style>%s</style></head><body>\n", e(rec.RunID), comparisonStyle)
		fmt.Fprintf(&b, "<h1>Run %s</h1>\n", e(rec.RunID))
		fmt.Fprintf(&b, "<p>mode <code>%s</code>, model <code>%s</code>, temperature <code>%s</code></p>\n",
			e(string(rec.Mode)), e(rec.ModelName), e(formatTemperature(rec.Temperature)))
		if rec.Aborted {
			reason := ""
			if rec.AbortReason != nil {
				reason = *rec.AbortReason
			}
			fmt.Fprintf(&b, "<p class=\"err\"><strong>Aborted:</strong> %s</p>\n", e(reason))
		}
		b.WriteString("<table><thead><tr>")
		for _, header := range comparisonHeaders {
			fmt.Fprintf(&b, "<th>%s</th>", e(header))
		}
		b.WriteString("</tr></thead><tbody>\n")
		for i, item := range rec.Questions {
			fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td>", i+1, e(item.ID))
			fmt.Fprintf(&b, "<td><pre>%s</pre></td><td><pre>%s</pre></td>", e(htmlAnswer(item.Direct)), e(htmlAnswer(item.CoT)))
			fmt.Fprintf(&b, "<td class=\"%[1]s\">%[1]s</td><td class=\"%[2]s\">%[2]s</td></tr>\n", verdictCell(item.Direct), verdictCell(item.CoT))
			fmt.Fprintf(&b, "<tr class=\"prompt\"><td></td><td colspan=\"%d\"><pre>%s</pre></td></tr>\n", len(comparisonHeaders)-1, e(item.Prompt))
		}
		b.WriteString("</tbody></table>\n")
		fmt.Fprintf(&b, "<pre>%s</pre>\n</body></html>\n", e(RenderSummary(rec)))
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := w.Write(b.Bytes())
		return err
	})
}

// RenderComparisonHTML renders ComparisonPage into memory.
func RenderComparisonHTML(ctx context.Context, rec record.RunRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := ComparisonPage(rec).Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("render comparison html: %w", err)
	}
	return buf.Bytes(), nil
}

// htmlAnswer returns the untruncated answer, or the error when the call failed.
func htmlAnswer(result record.StrategyResult) string {
	if result.Failed() {
		return "ERROR: " + *result.Error
	}
	return result.RawAnswer
}
