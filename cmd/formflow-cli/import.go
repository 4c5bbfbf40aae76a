package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-formflow/pkg/openapi"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/schema"
)

type importFlags struct {
	operation  string
	list       bool
	lint       bool
	jsonSchema bool
	format     string
	output     string
	timeout    time.Duration
	validate   bool
}

func setupImportFlags() (*flag.FlagSet, *importFlags) {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	flags := &importFlags{}

	fs.StringVar(&flags.operation, "operation", "", "operationId to import (defaults to the only operation with a body)")
	fs.BoolVar(&flags.list, "list", false, "list operations instead of importing")
	fs.BoolVar(&flags.lint, "lint", false, "report malformed x-formflow extensions instead of importing")
	fs.BoolVar(&flags.jsonSchema, "json-schema", false, "treat the input as a standalone JSON Schema object")
	fs.StringVar(&flags.format, "format", "yaml", "output format: json or yaml")
	fs.StringVar(&flags.output, "output", "", "output file (stdout if empty)")
	fs.DurationVar(&flags.timeout, "timeout", 15*time.Second, "timeout for remote documents")
	fs.BoolVar(&flags.validate, "validate-document", false, "validate the OpenAPI document before importing")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: formflow-cli import [flags] <file|url>\n\n")
		_, _ = fmt.Fprintf(output, "Build a form schema from an OpenAPI request body.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, flags
}

func handleImport(args []string, out io.Writer) error {
	fs, flags := setupImportFlags()
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("import command requires exactly one document")
	}

	var format schema.Format
	switch strings.ToLower(flags.format) {
	case "json":
		format = schema.FormatJSON
	case "yaml", "yml":
		format = schema.FormatYAML
	default:
		return fmt.Errorf("unsupported format %q, expected json or yaml", flags.format)
	}

	location := fs.Arg(0)
	var form schema.Schema
	if flags.jsonSchema {
		raw, err := os.ReadFile(location)
		if err != nil {
			return fmt.Errorf("read %s: %w", location, err)
		}
		if form, err = openapi.ImportSchema(raw); err != nil {
			return err
		}
	} else {
		src := openapi.SourceFromFile(location)
		if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
			remote, err := openapi.SourceFromURL(location)
			if err != nil {
				return err
			}
			src = remote
		}

		options := []openapi.ImporterOption{
			openapi.WithLoader(openapi.NewLoader(openapi.WithHTTPFallback(flags.timeout))),
		}
		if flags.validate {
			options = append(options, openapi.WithDocumentValidation())
		}
		importer := openapi.NewImporter(options...)

		ctx := context.Background()
		if flags.list {
			ops, err := importer.Operations(ctx, src)
			if err != nil {
				return err
			}
			return printOperations(out, ops)
		}
		if flags.lint {
			violations, err := importer.Lint(ctx, src)
			if err != nil {
				return err
			}
			return printViolations(out, location, violations)
		}

		var err error
		if form, err = importer.Import(ctx, src, flags.operation); err != nil {
			return err
		}
	}

	result := orchestrator.New().Validate(form)
	if !result.Valid {
		return fmt.Errorf("%w: imported schema: %s", errInvalid, strings.Join(result.Errors, "; "))
	}

	data, err := schema.Encode(form, format)
	if err != nil {
		return err
	}
	return writeOutput(out, flags.output, data)
}

func printOperations(out io.Writer, ops []openapi.Operation) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "OPERATION\tMETHOD\tPATH\tBODY\tSUMMARY")
	for _, op := range ops {
		body := "-"
		if op.HasBody {
			body = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", op.ID, op.Method, op.Path, body, op.Summary)
	}
	return tw.Flush()
}

func printViolations(out io.Writer, location string, violations []openapi.Violation) error {
	if len(violations) == 0 {
		_, _ = fmt.Fprintf(out, "%s: no x-formflow issues found\n", location)
		return nil
	}
	for _, v := range violations {
		_, _ = fmt.Fprintf(out, "%s: %s -> %s\n", location, v.Location, v.Message)
	}
	return fmt.Errorf("%w: %d x-formflow issue(s)", errInvalid, len(violations))
}
