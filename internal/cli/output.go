package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Output печатает результаты команд.
//
// Данные (таблицы, JSON, строки событий) идут в stdout, итоговые
// сообщения о run в stderr: `nodus-deploy run --json plan.yaml | jq`
// получает чистый JSON.
type Output struct {
	jsonMode bool
	w        io.Writer
	diag     io.Writer
}

// NewOutput создаёт Output. w — stdout, diag — stderr.
func NewOutput(jsonMode bool, w, diag io.Writer) *Output {
	return &Output{jsonMode: jsonMode, w: w, diag: diag}
}

// JSONMode сообщает, задан ли --json.
func (o *Output) JSONMode() bool {
	return o.jsonMode
}

// Print выводит rows таблицей, а в режиме --json печатает data.
func (o *Output) Print(headers []string, rows [][]string, data any) {
	if o.jsonMode {
		o.JSON(data)
		return
	}
	o.Table(headers, rows)
}

// Table печатает выровненную таблицу. Пустая таблица печатает
// только строку "no entries".
func (o *Output) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(o.w, "no entries")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// JSON печатает v с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// Line печатает строку в stdout.
func (o *Output) Line(format string, args ...any) {
	fmt.Fprintf(o.w, format+"\n", args...)
}

// Notice печатает итог в stderr.
func (o *Output) Notice(format string, args ...any) {
	fmt.Fprintf(o.diag, format+"\n", args...)
}

// Failure печатает итог неудачного run в stderr.
func (o *Output) Failure(format string, args ...any) {
	fmt.Fprintf(o.diag, "FAILED: "+format+"\n", args...)
}
