package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/autoroute/pkg/discover"
	"github.com/vango-dev/autoroute/pkg/registrar"
	"github.com/vango-dev/autoroute/pkg/routefile"
)

func routesCmd(c *cli) *cobra.Command {
	var (
		asJSON        bool
		registrations bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes discovered under the route root",
		Long: `Walk the route root, parse every route file and print the resulting
route table without starting a server.

Handlers are listed by name; they are not resolved, so the table can be
printed for trees whose handlers live in another binary.`,
		Example: `  autoroute routes
  autoroute routes --registrations
  autoroute routes --json | jq '.[].pattern'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lister, root, err := openSource(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}

			regs, err := discover.New(lister, c.cfg.Discovery(root)).Collect()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if registrations {
				if asJSON {
					return writeJSON(out, regs)
				}
				return writeRegistrations(out, regs)
			}

			table, err := routeTable(lister, regs)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, table)
			}
			return writeRoutes(out, table)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVarP(&registrations, "registrations", "r", false, "Print one line per route file instead of per route")

	return cmd
}

// routeRow is one line of the route table.
type routeRow struct {
	Method     string   `json:"method"`
	Pattern    string   `json:"pattern"`
	Name       string   `json:"name,omitempty"`
	Target     string   `json:"target"`
	Middleware []string `json:"middleware,omitempty"`
	File       string   `json:"file"`
}

// routeTable parses every registered file the way the chi registrar
// would, without resolving handlers or mounting anything.
func routeTable(src registrar.Source, regs []discover.Registration) ([]routeRow, error) {
	var rows []routeRow

	for _, reg := range regs {
		data, err := src.ReadFile(reg.File)
		if err != nil {
			return nil, fmt.Errorf("read route file %s: %w", reg.File, err)
		}
		file, err := routefile.Parse(reg.File, data)
		if err != nil {
			return nil, err
		}

		for _, def := range file.Routes {
			row := routeRow{
				Method:  def.Method,
				Pattern: registrar.JoinPattern(reg.URLPrefix, def.Path),
				Target:  target(def, reg.Namespace),
				File:    reg.File,
			}
			if def.Name != "" {
				row.Name = reg.NamePrefix + def.Name
			}
			if reg.Middleware != "" {
				row.Middleware = append(row.Middleware, reg.Middleware)
			}
			row.Middleware = append(row.Middleware, def.Middleware...)
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Pattern != rows[j].Pattern {
			return rows[i].Pattern < rows[j].Pattern
		}
		return rows[i].Method < rows[j].Method
	})

	return rows, nil
}

// target describes what a route answers with.
func target(def routefile.Route, namespace string) string {
	switch {
	case def.Handler != "":
		if namespace != "" {
			return namespace + "." + def.Handler
		}
		return def.Handler
	case def.Redirect != "":
		return fmt.Sprintf("redirect %d %s", def.Status, def.Redirect)
	default:
		return fmt.Sprintf("static %d", def.Status)
	}
}

func writeRoutes(w io.Writer, rows []routeRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATTERN\tNAME\tTARGET\tMIDDLEWARE\tFILE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Method, r.Pattern, dash(r.Name), r.Target, dash(strings.Join(r.Middleware, ",")), r.File)
	}
	return tw.Flush()
}

func writeRegistrations(w io.Writer, regs []discover.Registration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tPREFIX\tNAMES\tMIDDLEWARE\tNAMESPACE")
	for _, r := range regs {
		if r.Bare {
			fmt.Fprintf(tw, "%s\t(include)\t-\t-\t-\n", r.File)
			continue
		}
		fmt.Fprintf(tw, "%s\t/%s\t%s*\t%s\t%s\n",
			r.File, r.URLPrefix, r.NamePrefix, dash(r.Middleware), dash(r.Namespace))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
