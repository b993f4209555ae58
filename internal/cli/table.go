package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forPelevin/scenecut/internal/types"
	"github.com/forPelevin/scenecut/internal/usecase"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, footer ...string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(toRow(headers, columns))
	for _, row := range rows {
		tw.AppendRow(toRow(row, columns))
	}
	if len(footer) > 0 {
		tw.AppendFooter(toRow(footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(cells []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

func renderPlan(p usecase.Plan, target float64) string {
	rows := spanRows(p.Selected)
	head := fmt.Sprintf("source %s, %d scenes detected, target %s\n",
		seconds(p.SourceDuration), len(p.Scenes), seconds(target))
	return head + renderTable(
		[]string{"#", "Start", "End", "Duration", "Kind", "Truncated"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
		"", "", "Total", seconds(types.SpansDuration(p.Selected)),
	)
}

func renderSummary(sum types.RunSummary) string {
	audio := "none"
	switch {
	case sum.AudioAttached:
		audio = "attached"
	case sum.Degraded:
		audio = "missing (silent fallback)"
	}
	rows := [][]string{
		{"Output", sum.Output},
		{"Source", seconds(sum.SourceDuration)},
		{"Scenes detected", strconv.Itoa(sum.Scenes)},
		{"Segments", fmt.Sprintf("%d of %d", len(sum.Extracted), len(sum.Selected))},
		{"Duration", seconds(sum.OutputDuration)},
		{"Audio", audio},
		{"Elapsed", sum.Elapsed.Round(10 * time.Millisecond).String()},
	}
	return renderTable([]string{"Run " + sum.RunID, ""}, rows, nil)
}

func spanRows(spans []types.SelectedSpan) [][]string {
	rows := make([][]string, 0, len(spans))
	for i, s := range spans {
		truncated := ""
		if s.Truncated {
			truncated = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			seconds(s.Start),
			seconds(s.End),
			seconds(s.Duration()),
			s.Provenance.String(),
			truncated,
		})
	}
	return rows
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "s"
}
