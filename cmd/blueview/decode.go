package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trambelus/Blueview/beacon"
)

func newDecodeCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode HCI events given as hex dumps",
		Long: `Decode parses LE Advertising Report events from the arguments, or from stdin
one per line when no argument is given.

Examples:
  blueview decode 043e2a02010300efbeadde0ac01e...
  hcidump -R | blueview decode --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var err error
				if args, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return runDecode(cmd.OutOrStdout(), args, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, errors.Wrap(sc.Err(), "read stdin")
}

// decoded is the outcome of one hex dump.
type decoded struct {
	input   string
	results []beacon.Result
	err     error
}

func (d decoded) rows() []map[string]any {
	if d.err != nil {
		return []map[string]any{{"input": d.input, "error": d.err.Error()}}
	}
	rows := make([]map[string]any, 0, len(d.results))
	for _, res := range d.results {
		row := res.Record.Summary()
		row["index"] = res.Record.Index
		if res.Err != nil {
			row["error"] = res.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

func (d decoded) failures() int {
	if d.err != nil {
		return 1
	}
	n := 0
	for _, res := range d.results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

func runDecode(out io.Writer, dumps []string, format string) error {
	items := make([]decoded, 0, len(dumps))
	failed := 0
	for _, dump := range dumps {
		results, err := beacon.DecodeHex(dump)
		d := decoded{input: dump, results: results, err: err}
		failed += d.failures()
		items = append(items, d)
	}

	if err := render(out, items, format); err != nil {
		return err
	}
	if failed > 0 {
		return errors.Errorf("%d of the decoded items failed", failed)
	}
	return nil
}

func render(out io.Writer, items []decoded, format string) error {
	if format == "text" {
		for _, d := range items {
			writeText(out, d)
		}
		return nil
	}
	rows := []map[string]any{}
	for _, d := range items {
		rows = append(rows, d.rows()...)
	}
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(rows), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return errors.Wrap(enc.Close(), "encode yaml")
	}
	return errors.Errorf("unknown format %q", format)
}

func writeText(out io.Writer, d decoded) {
	if d.err != nil {
		fmt.Fprintf(out, "error: %v\n%s\n", d.err, separator)
		return
	}
	for _, res := range d.results {
		if res.Err != nil {
			fmt.Fprintf(out, "MAC: %s\n  error: %v\n", res.Record.MAC(), res.Err)
		} else {
			fmt.Fprint(out, res.Record.String())
		}
		fmt.Fprintln(out, separator)
	}
}
