package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"order_desk/internal/clock"
	"order_desk/internal/domain"
)

// Field is one labelled value of an order result.
type Field struct {
	Name  string
	Value string
}

// OrderFields lists the result fields shown to the operator, in display order.
func OrderFields(res *domain.OrderResult) []Field {
	if res == nil {
		return nil
	}
	return []Field{
		{"orderId", fmt.Sprintf("%d", res.OrderID)},
		{"symbol", res.Symbol},
		{"side", string(res.Side)},
		{"type", string(res.Type)},
		{"status", res.Status},
		{"price", res.Price.String()},
		{"origQty", res.OrigQty.String()},
		{"executedQty", res.ExecutedQty.String()},
	}
}

// RenderOrder writes res as a two-column table.
func RenderOrder(w io.Writer, res *domain.OrderResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	for _, f := range OrderFields(res) {
		table.Append([]string{f.Name, f.Value})
	}
	table.Render()
}

// RenderSymbols writes the symbol list, cols per row.
func RenderSymbols(w io.Writer, symbols []string, cols int) {
	if cols <= 0 {
		cols = 6
	}
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")
	table.SetBorder(false)

	for i := 0; i < len(symbols); i += cols {
		end := i + cols
		if end > len(symbols) {
			end = len(symbols)
		}
		row := make([]string, cols)
		copy(row, symbols[i:end])
		table.Append(row)
	}
	table.Render()
	fmt.Fprintf(w, "%d trading symbols\n", len(symbols))
}

// RenderClock writes the resolver state and offset.
func RenderClock(w io.Writer, state clock.State, offset clock.Offset, degraded bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"State", "Offset (ms)", "Degraded"})
	table.Append([]string{state.String(), fmt.Sprintf("%d", int64(offset)), fmt.Sprintf("%t", degraded)})
	table.Render()
}

// RenderError writes a classified error on one line.
func RenderError(w io.Writer, err error) {
	kind, msg := domain.Describe(err)
	fmt.Fprintf(w, "error [%s]: %s\n", strings.ToUpper(string(kind)), msg)
}
