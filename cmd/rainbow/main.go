package main

import (
	"os"
	"strings"

	"github.com/fatih/color"
)

func main() {
	cmd := newRootCmd(os.Stdout)
	cmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(color.Error, "Error: %v\n", err)
		os.Exit(1)
	}
}

// normalizeArgs rewrites the historical single-dash "-fm" spelling, which
// pflag cannot express as a shorthand.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch {
		case a == "--":
			copy(out[i:], args[i:])
			return out
		case a == "-fm":
			out[i] = "--fix-metadata"
		case strings.HasPrefix(a, "-fm="):
			out[i] = "--fix-metadata=" + strings.TrimPrefix(a, "-fm=")
		default:
			out[i] = a
		}
	}
	return out
}
