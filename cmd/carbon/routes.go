package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vango-dev/carbon/pkg/router"
)

type routeRow struct {
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	Params   []string          `json:"params"`
	Defaults map[string]string `json:"defaults,omitempty"`
	Regions  []string          `json:"regions,omitempty"`
}

func routesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the manifest",
		Long: `List every route in matching order.

Routes are matched first to last; the first route whose pattern fits a
URL wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags)
			if err != nil {
				return err
			}
			r, err := p.router()
			if err != nil {
				return err
			}
			rows := routeRows(r)
			if flags.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			printRoutes(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

func routeRows(r *router.Router) []routeRow {
	rows := []routeRow{}
	for _, route := range r.Table().Routes() {
		row := routeRow{
			Name:     route.Name,
			Path:     route.Template,
			Params:   route.Pattern.Names(),
			Defaults: route.ParamDefaults,
		}
		for name := range route.Regions {
			row.Regions = append(row.Regions, name)
		}
		sort.Strings(row.Regions)
		rows = append(rows, row)
	}
	return rows
}

func printRoutes(w io.Writer, rows []routeRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No routes.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tREGIONS")
	for _, row := range rows {
		regions := strings.Join(row.Regions, ",")
		if regions == "" {
			regions = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Name, row.Path, regions)
	}
	tw.Flush()
}
