package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	solved  = color.New(color.FgGreen)
	missed  = color.New(color.FgYellow)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func section(w io.Writer, name string) {
	heading.Fprintln(w, name)
}

func bullet(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  "+format+"\n", args...)
}
