package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/carbon/internal/errors"
	"github.com/vango-dev/carbon/pkg/router"
)

func urlCmd(flags *globalFlags) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "url <name> [key=value...]",
		Short: "Build the URL of a named route",
		Long: `Substitute parameters into a route's pattern.

Parameters not given on the command line fall back to the route's
defaults. Without --check an unknown route or a missing parameter prints
an empty line.`,
		Example: `  carbon url user id=42
  carbon url post id=1 slug=hello --check`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			p, err := loadProject(flags)
			if err != nil {
				return err
			}
			r, err := p.router()
			if err != nil {
				return err
			}

			var opts []router.URLOption
			if check {
				opts = append(opts, router.Check())
			}
			url, err := r.URL(args[0], params, opts...)
			if err != nil {
				return errors.FromRouterError(err, "C001")
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Fail on unknown routes and missing parameters")
	return cmd
}

func parseParams(args []string) (router.Params, error) {
	params := make(router.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.Newf(errors.CategoryCLI, "invalid parameter %q, want key=value", arg).
				WithExample("carbon url user id=42")
		}
		params[key] = value
	}
	return params, nil
}
