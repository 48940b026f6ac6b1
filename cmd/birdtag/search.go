package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

func newSearchCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search species[=count] ...",
		Short: "Find files holding any species with at least count sightings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseCriteria(args)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd.Context(), "search")
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			resp, err := a.Service.Search(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				return writeJSON(out, resp)
			}
			fmt.Fprintln(out, renderResults(resp))
			fmt.Fprintln(out, resp.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON even on a terminal")
	return cmd
}

// parseCriteria reads "crow=2" style arguments. A bare species means a
// count of 1.
func parseCriteria(args []string) (model.SearchCriteria, error) {
	criteria := make(model.SearchCriteria, len(args))
	for _, arg := range args {
		species, count, found := strings.Cut(arg, "=")
		species = strings.ToLower(strings.TrimSpace(species))
		if species == "" {
			return nil, fmt.Errorf("empty species in %q", arg)
		}
		n := 1
		if found {
			var err error
			n, err = strconv.Atoi(strings.TrimSpace(count))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("count in %q must be a positive integer", arg)
			}
		}
		if prev, ok := criteria[species]; !ok || n < prev {
			criteria[species] = n
		}
	}
	return criteria, nil
}

func renderResults(resp model.SearchResponse) string {
	rows := make([][]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		rows = append(rows, []string{
			strconv.FormatInt(r.FileID, 10),
			string(r.FileType),
			r.FileName,
			formatBirds(r.DetectedBirds),
			r.UploadDate,
			r.URL,
		})
	}
	return renderTable(
		[]string{"ID", "Type", "File", "Birds", "Uploaded", "URL"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func formatBirds(birds map[string]int) string {
	names := make([]string, 0, len(birds))
	for name := range birds {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s×%d", name, birds[name])
	}
	return strings.Join(parts, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
