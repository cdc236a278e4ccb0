package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"ui_automation/domain/entities"
)

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	noteColor    = color.New(color.FgCyan)
)

func printResult(out io.Writer, result entities.QueryResult) {
	q := result.Query
	title := fmt.Sprintf("%s %s", q.Kind, q.Component)
	if q.Condition != "" {
		title += " " + q.Condition
	}

	if !result.Success {
		failureColor.Fprintf(out, "FAIL %s (%s)\n", title, result.Elapsed.Round(time.Millisecond))
		fmt.Fprintf(out, "  %s\n", result.Error)
		return
	}

	if q.Kind == entities.QueryIsAbsent {
		if result.Absent {
			successColor.Fprintf(out, "OK   %s: absent (%s)\n", title, result.Elapsed.Round(time.Millisecond))
		} else {
			noteColor.Fprintf(out, "OK   %s: still present (%s)\n", title, result.Elapsed.Round(time.Millisecond))
		}
		return
	}

	successColor.Fprintf(out, "OK   %s: %d element(s) (%s)\n", title, len(result.Elements), result.Elapsed.Round(time.Millisecond))
	if len(result.Elements) == 0 {
		return
	}
	printElements(out, result.Elements)
}

func printElements(out io.Writer, elements []entities.PageElement) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "type", "selector", "text", "visible", "clickable"})
	table.SetAutoWrapText(false)
	for i, el := range elements {
		table.Append([]string{
			strconv.Itoa(i),
			el.Type,
			el.Selector,
			shorten(el.Text, 40),
			strconv.FormatBool(el.IsVisible),
			strconv.FormatBool(el.IsClickable),
		})
	}
	table.Render()
}

func printComponents(out io.Writer, components []entities.ComponentDescriptor) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"component", "parent", "layers", "final"})
	table.SetAutoWrapText(false)
	for _, c := range components {
		layers := make([]string, 0, len(c.Layers))
		for _, l := range c.Layers {
			layers = append(layers, step(l.LocateDescriptor))
		}
		table.Append([]string{c.Name, c.Parent, strings.Join(layers, " > "), step(c.Final)})
	}
	table.Render()
}

func printHistory(out io.Writer, history []entities.QueryResult) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "query", "component", "outcome", "elapsed"})
	for i, r := range history {
		outcome := fmt.Sprintf("%d element(s)", len(r.Elements))
		switch {
		case !r.Success:
			outcome = "failed"
		case r.Query.Kind == entities.QueryIsAbsent && r.Absent:
			outcome = "absent"
		case r.Query.Kind == entities.QueryIsAbsent:
			outcome = "present"
		}
		table.Append([]string{strconv.Itoa(i + 1), string(r.Query.Kind), r.Query.Component, outcome, r.Elapsed.Round(time.Millisecond).String()})
	}
	table.Render()
}

func printError(out io.Writer, err error) {
	failureColor.Fprintf(out, "error: %v\n", err)
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  locate <component> [condition]      first element of a component
  all <component> [condition]         every element of a component
  absent <component>                  wait until a component disappears
  open <url|path>                     load another document
  components                          list the descriptor table
  history                             list the queries run so far
  quit                                leave
`)
}

func step(d entities.LocateDescriptor) string {
	s := string(d.Strategy)
	if len(d.Terms) > 0 {
		s += "(" + strings.Join(d.Terms, ", ") + ")"
	}
	if d.Index.Valid {
		s += fmt.Sprintf("[%d]", d.Index.Int64)
	}
	return s
}

func shorten(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
