package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vango-dev/carbon/internal/scaffold"
)

func initCmd() *cobra.Command {
	var (
		name   string
		origin string
		port   int
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a new Carbon project",
		Long: `Create carbon.json, a route manifest and starter templates.

Scaffolds:
  minimal   one route and one template
  site      a layout with pages, a redirect and a not-found page (default)`,
		Example: `  carbon init
  carbon init docs --scaffold=minimal
  carbon init site --origin=https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			s, err := scaffold.Get(name)
			if err != nil {
				return err
			}
			if err := s.Create(abs, scaffold.Config{Origin: origin, Port: port}); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, p := range s.Paths() {
				fmt.Fprintf(w, "  create %s\n", filepath.Join(dir, filepath.FromSlash(p)))
			}
			success(w, "Created %s project in %s", s.Name, dir)
			fmt.Fprintf(w, "\n  cd %s && carbon serve\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "scaffold", "s", "site", "Project scaffold (minimal, site)")
	cmd.Flags().StringVar(&origin, "origin", "", "Site origin written to carbon.json")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Preview port written to carbon.json")
	return cmd
}
