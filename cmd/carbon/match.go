package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/vango-dev/carbon/pkg/router"
)

type matchResult struct {
	URL      string            `json:"url"`
	Status   router.Status     `json:"status"`
	Route    string            `json:"route,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Regions  map[string]string `json:"regions,omitempty"`
	Assigned string            `json:"assigned,omitempty"`
}

func matchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "match <url>",
		Short: "Show which route a URL resolves to",
		Long: `Navigate a router to the URL and print the resulting controller.

Before-hooks run, so redirects declared in the manifest are followed and
the final URL is reported.`,
		Example: `  carbon match /users/42
  carbon match https://example.com/about --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags)
			if err != nil {
				return err
			}
			res, err := match(p, args[0])
			if err != nil {
				return err
			}
			if flags.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printMatch(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func match(p *project, url string) (*matchResult, error) {
	origin := p.cfg.Origin
	if origin == "" {
		origin = "http://localhost"
	}
	history := router.NewMemoryHistory(origin + "/")
	r, err := p.router(router.WithHistory(history), router.WithOrigin(origin))
	if err != nil {
		return nil, err
	}

	r.GoURL(url)
	if assigned := history.Assigned(); len(assigned) > 0 {
		return &matchResult{URL: url, Status: router.StatusLoading, Assigned: assigned[len(assigned)-1]}, nil
	}

	c := r.Current(router.NonReactive())
	res := &matchResult{
		URL:    c.Navigation().URL,
		Status: c.Status(),
		Route:  c.RouteName(),
		Params: c.Params(),
	}
	for _, region := range c.Regions() {
		if res.Regions == nil {
			res.Regions = make(map[string]string)
		}
		res.Regions[region] = c.RegionTemplate(region)
	}
	if assigned := history.Assigned(); len(assigned) > 0 {
		res.Assigned = assigned[len(assigned)-1]
	}
	return res, nil
}

func printMatch(w io.Writer, res *matchResult) {
	if res.Assigned != "" {
		fmt.Fprintf(w, "%s leaves the site: %s\n", res.URL, res.Assigned)
		return
	}
	if res.Status != router.StatusFound {
		fmt.Fprintf(w, "%s matches no route\n", res.URL)
		return
	}
	fmt.Fprintf(w, "%s -> %s\n", res.URL, res.Route)
	for _, name := range sortedKeys(res.Params) {
		fmt.Fprintf(w, "  param  %s = %s\n", name, res.Params[name])
	}
	for _, name := range sortedKeys(res.Regions) {
		tmpl := res.Regions[name]
		if tmpl == "" {
			tmpl = "-"
		}
		fmt.Fprintf(w, "  region %s: %s\n", name, tmpl)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
