package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hray3182/BillMe/internal/ai"
	"github.com/hray3182/BillMe/internal/format"
	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/reminder"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	alertStyle  = cellStyle.Foreground(lipgloss.Color("203"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

func renderResult(w io.Writer, res *reminder.Result) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d)", res.Message, res.Count)))
	if len(res.Bills) > 0 {
		t := newTable("Description", "Balance", "Due", "Status").
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case col == 3 && res.Bills[row].DaysUntilDue < 0:
					return alertStyle
				default:
					return cellStyle
				}
			})
		for _, b := range res.Bills {
			t.Row(b.Description, fmt.Sprintf("$%.2f", b.Balance), b.DueDate, format.DueText(b.DaysUntilDue))
		}
		fmt.Fprintln(w, t)
	}

	if len(res.Reports) > 0 {
		t := newTable("Channel", "Attempted", "Delivered", "Skipped", "Failed").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, r := range res.Reports {
			t.Row(r.Channel, strconv.Itoa(r.Attempted), strconv.Itoa(r.Delivered), strconv.Itoa(r.Skipped), strconv.Itoa(r.Failed))
		}
		fmt.Fprintln(w, t)
	}
}

func renderBills(w io.Writer, bills []*models.Bill) {
	if len(bills) == 0 {
		fmt.Fprintln(w, "no bills")
		return
	}
	t := newTable("ID", "Description", "Balance", "Minimum", "Due", "Status").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, b := range bills {
		desc := reminder.DefaultDescription
		if b.Description != nil && *b.Description != "" {
			desc = *b.Description
		}
		t.Row(b.ID, desc, format.Money(b.Balance), format.Money(b.MinimumDue), b.DueDate.Format(models.DateLayout), string(b.Status))
	}
	fmt.Fprintln(w, t)
}

func renderExtraction(w io.Writer, e *ai.Extraction) {
	t := newTable("Field", "Value").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Row("Description", e.Description).
		Row("Balance", format.Money(e.Balance)).
		Row("Minimum due", format.Money(e.MinimumDue)).
		Row("Due date", e.DueDate.Format(models.DateLayout)).
		Row("Confidence", string(e.Confidence))
	fmt.Fprintln(w, t)
}
