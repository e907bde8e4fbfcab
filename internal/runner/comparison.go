package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"cotbench/internal/prompt"
	"cotbench/internal/record"
)

// maxAnswerRunes caps answers shown in comparison tables.
const maxAnswerRunes = 60

// comparisonHeaders are the column titles of every comparison table.
var comparisonHeaders = []string{"#", "id", "direct answer", "cot answer", "direct ok", "cot ok"}

// RenderComparison renders the plain-text comparison table for a record.
func RenderComparison(rec record.RunRecord) string {
	tbl := table.New().
		Border(lipgloss.ASCIIBorder()).
		Headers(comparisonHeaders...).
		Rows(comparisonRows(rec)...)
	return tbl.String() + "\n" + RenderSummary(rec)
}

// RenderComparisonMarkdown renders the comparison table as GitHub markdown.
func RenderComparisonMarkdown(rec record.RunRecord) string {
	tbl := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(comparisonHeaders...).
		Rows(markdownRows(comparisonRows(rec))...)

	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", rec.RunID)
	fmt.Fprintf(&b, "- mode: %s\n- model: %s\n- temperature: %s\n\n", rec.Mode, rec.ModelName, formatTemperature(rec.Temperature))
	b.WriteString(tbl.String())
	b.WriteString("\n\n")
	b.WriteString(RenderSummary(rec))
	return b.String()
}

// RenderStrategy renders the answers and accuracy of a single strategy.
func RenderStrategy(rec record.RunRecord, strategy prompt.Strategy) string {
	rows := make([][]string, 0, len(rec.Questions))
	for i, item := range rec.Questions {
		result, _ := item.Result(strategy)
		rows = append(rows, []string{strconv.Itoa(i + 1), item.ID, answerCell(result), verdictCell(result)})
	}
	tbl := table.New().
		Border(lipgloss.ASCIIBorder()).
		Headers("#", "id", strategy.String()+" answer", strategy.String()+" ok").
		Rows(rows...)

	correct, accuracy := rec.Summary.DirectCorrect, rec.Summary.DirectAccuracy
	if strategy == prompt.StrategyCoT {
		correct, accuracy = rec.Summary.CoTCorrect, rec.Summary.CoTAccuracy
	}
	var b strings.Builder
	b.WriteString(tbl.String())
	fmt.Fprintf(&b, "\nRun %s (%s, model %s)\n", rec.RunID, rec.Mode, rec.ModelName)
	fmt.Fprintf(&b, "%s accuracy: %d/%d (%s)\n", strategy, correct, rec.Summary.QuestionsTotal, formatPercent(accuracy))
	return b.String()
}

// RenderSummary renders the accuracy summary lines shown under the table.
func RenderSummary(rec record.RunRecord) string {
	s := rec.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s, model %s)\n", rec.RunID, rec.Mode, rec.ModelName)
	fmt.Fprintf(&b, "Direct accuracy: %d/%d (%s)\n", s.DirectCorrect, s.QuestionsTotal, formatPercent(s.DirectAccuracy))
	fmt.Fprintf(&b, "CoT accuracy:    %d/%d (%s)\n", s.CoTCorrect, s.QuestionsTotal, formatPercent(s.CoTAccuracy))
	fmt.Fprintf(&b, "Errors: %d\n", s.Errors)
	if rec.Aborted {
		reason := "unknown"
		if rec.AbortReason != nil {
			reason = *rec.AbortReason
		}
		fmt.Fprintf(&b, "ABORTED: %s\n", reason)
	}
	return b.String()
}

// comparisonRows converts question results into table cells.
func comparisonRows(rec record.RunRecord) [][]string {
	rows := make([][]string, 0, len(rec.Questions))
	for i, item := range rec.Questions {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.ID,
			answerCell(item.Direct),
			answerCell(item.CoT),
			verdictCell(item.Direct),
			verdictCell(item.CoT),
		})
	}
	return rows
}

// markdownRows escapes pipe characters so cells cannot split columns.
func markdownRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = strings.ReplaceAll(cell, "|", `\|`)
		}
		out[i] = cells
	}
	return out
}

// answerCell shows the raw answer on one line, or the error when the call failed.
func answerCell(result record.StrategyResult) string {
	if result.Failed() {
		return truncateRunes("ERROR: "+singleLine(*result.Error), maxAnswerRunes)
	}
	return truncateRunes(singleLine(result.RawAnswer), maxAnswerRunes)
}

// verdictCell renders a judge verdict.
func verdictCell(result record.StrategyResult) string {
	switch {
	case result.Failed():
		return "err"
	case result.IsCorrect:
		return "yes"
	default:
		return "no"
	}
}

// singleLine collapses all whitespace, including newlines, to single spaces.
func singleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncateRunes shortens text to at most limit runes, marking the cut with "...".
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// formatPercent renders a 0..1 ratio as a percentage.
func formatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

// formatTemperature renders a temperature without trailing zeros.
func formatTemperature(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
