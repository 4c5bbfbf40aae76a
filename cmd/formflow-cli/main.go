package main

import (
	"fmt"
	"os"
	"strings"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var commands = []string{"validate", "render", "fill", "new", "types", "import", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("formflow v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "validate":
		err = handleValidate(args, os.Stdout)
	case "render":
		err = handleRender(args, os.Stdout)
	case "fill":
		err = handleFill(args, os.Stdout)
	case "new":
		err = handleNew(args, os.Stdout)
	case "types":
		err = handleTypes(args, os.Stdout)
	case "import":
		err = handleImport(args, os.Stdout)
	case "mcp":
		err = handleMCP(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean %q?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`formflow - schema-driven multi-step forms

Usage:
  formflow-cli <command> [flags] [args]

Commands:
  validate   Validate one or more schema documents
  render     Render a schema to HTML
  fill       Fill a schema interactively in the terminal
  new        Print the seed schema for a new form
  types      List the field type palette
  import     Build a schema from an OpenAPI operation
  mcp        Serve the MCP tools over stdio
  version    Print the version

Run 'formflow-cli <command> -h' for command flags.
`)
}

// suggestCommand returns the closest known command within edit distance 2.
func suggestCommand(input string) string {
	input = strings.ToLower(input)
	best, bestDist := "", 3
	for _, cmd := range commands {
		if d := levenshtein(input, cmd); d < bestDist {
			best, bestDist = cmd, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
