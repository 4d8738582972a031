package tabular

import (
	"fmt"
	"strings"

	"github.com/nexxia-ai/tabular/artifact"
)

// renderTableContext describes a table to the model: shape, columns, and
// summary statistics for the numeric columns.
func renderTableContext(t *artifact.Table) string {
	var b strings.Builder
	name := t.Name
	if name == "" {
		name = "df"
	}
	fmt.Fprintf(&b, "Table %q: %d rows, columns: %s\n", name, t.NumRows(), strings.Join(t.Columns, ", "))
	summaries := t.Describe()
	if len(summaries) > 0 {
		b.WriteString("Numeric column statistics:\n")
		for _, s := range summaries {
			fmt.Fprintf(&b, "  %s: count=%d mean=%.4g std=%.4g min=%.4g max=%.4g\n",
				s.Name, s.Count, s.Mean, s.StdDev, s.Min, s.Max)
		}
	}
	return b.String()
}

func transformSystemPrompt(t *artifact.Table) string {
	var b strings.Builder
	b.WriteString("You are a data analyst. The user asks questions about a pandas dataframe.\n")
	b.WriteString("<instructions>\n")
	b.WriteString("When the request requires changing the data, call the transform_table function with python code that defines:\n")
	b.WriteString("    def transform_table(df):\n")
	b.WriteString("        ...\n        return df\n")
	b.WriteString("The function receives the current dataframe and must return the transformed dataframe.\n")
	b.WriteString("Only reference the symbols available in the execution namespace.\n")
	b.WriteString("When no data change is needed, answer in plain text instead.\n")
	b.WriteString("</instructions>\n")
	b.WriteString("<data>\n")
	b.WriteString(renderTableContext(t))
	b.WriteString("</data>\n")
	return b.String()
}

func multiTableSystemPrompt(tables map[string]*artifact.Table) string {
	var b strings.Builder
	b.WriteString("You are a data analyst working with several named pandas dataframes.\n")
	b.WriteString("<instructions>\n")
	b.WriteString("When the request requires changing the data, call the transform_tables function with python code that defines:\n")
	b.WriteString("    def transform_tables(tables):\n")
	b.WriteString("        ...\n        return tables\n")
	b.WriteString("The function receives a dict mapping table name to dataframe and must return a dict of the same shape.\n")
	b.WriteString("When no data change is needed, answer in plain text instead.\n")
	b.WriteString("</instructions>\n")
	b.WriteString("<data>\n")
	for _, name := range artifact.SortedNames(tables) {
		b.WriteString(renderTableContext(tables[name]))
	}
	b.WriteString("</data>\n")
	return b.String()
}

func plotSystemPrompt(t *artifact.Table) string {
	var b strings.Builder
	b.WriteString("You are a data visualization assistant. The user asks for charts over a pandas dataframe.\n")
	b.WriteString("<instructions>\n")
	b.WriteString("Call the generate_plot function with python code that defines:\n")
	b.WriteString("    def generate_plot(df):\n")
	b.WriteString("        ...\n        return fig\n")
	b.WriteString("The function receives the current dataframe and must return a plotly figure.\n")
	b.WriteString("For follow-up requests that adjust the previous chart, regenerate the full figure with the requested change applied.\n")
	b.WriteString("</instructions>\n")
	b.WriteString("<data>\n")
	b.WriteString(renderTableContext(t))
	b.WriteString("</data>\n")
	return b.String()
}

func routerSystemPrompt(t *artifact.Table) string {
	var b strings.Builder
	b.WriteString("You route requests about a dataframe to the right specialist.\n")
	b.WriteString("<instructions>\n")
	b.WriteString("Call transform_table when the user wants to change, filter, aggregate or reshape the data.\n")
	b.WriteString("Call generate_plot when the user wants a chart or an adjustment to the previous chart.\n")
	b.WriteString("Pass the user's request through as the query argument.\n")
	b.WriteString("Only answer in plain text when the request is ambiguous and needs clarification.\n")
	b.WriteString("</instructions>\n")
	b.WriteString("<data>\n")
	b.WriteString(renderTableContext(t))
	b.WriteString("</data>\n")
	return b.String()
}
