package explain

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dshills/quantaplan/internal/sql/planner"
)

// RenderSchema formats a plan schema as a markdown table with one row per
// output column.
func RenderSchema(schema *planner.Schema) string {
	if schema.Len() == 0 {
		return "_No columns_\n"
	}

	tableString := &strings.Builder{}
	alignment := []tw.Align{tw.AlignRight, tw.AlignNone, tw.AlignNone, tw.AlignNone, tw.AlignNone}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"#", "column", "relation", "type", "nullable"})

	for i, col := range schema.Columns {
		nullable := "NO"
		if col.Nullable {
			nullable = "YES"
		}
		relation := col.Relation
		if relation == "" {
			relation = "-"
		}
		_ = table.Append([]string{strconv.Itoa(i), col.Name, relation, col.DataType.Name(), nullable})
	}
	_ = table.Render()

	return tableString.String()
}
