package commands

import (
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func orDash[T int | float64](v *T, suffix string) string {
	if v == nil {
		return "-"
	}
	switch x := any(*v).(type) {
	case int:
		return strconv.Itoa(x) + suffix
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64) + suffix
	}
	return "-"
}
