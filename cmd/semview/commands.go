package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/config"
	"github.com/c360studio/semview/export"
	"github.com/c360studio/semview/service"
)

// load reads source into the app: an http(s) URL is fetched, "-" reads
// stdin, anything else is a file path.
func load(ctx context.Context, app *App, stdin io.Reader, source string) (service.LoadResult, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return app.Service().LoadURL(ctx, source)
	case source == "-":
		content, err := io.ReadAll(stdin)
		if err != nil {
			return service.LoadResult{}, fmt.Errorf("read stdin: %w", err)
		}
		return app.Service().LoadDocument(ctx, "stdin.ttl", content)
	default:
		return app.Service().LoadFile(ctx, source)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func viewCmd(flags *globalFlags) *cobra.Command {
	var (
		req      service.ViewRequest
		types    []string
		language string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "view <file|url|->",
		Short: "Print the graph view of a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "render" && format != "model" {
				return fmt.Errorf("unknown format %q (want render or model)", format)
			}
			tags, err := classifier.ParseTypeTags(types)
			if err != nil {
				return err
			}
			req.Types = tags
			if cmd.Flags().Changed("lang") {
				req.Language = &language
			}

			app, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := load(ctx, app, cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			vm, err := app.Service().View(ctx, res.ID, req)
			if err != nil {
				return err
			}
			if format == "model" {
				return writeJSON(cmd.OutOrStdout(), vm)
			}
			return writeJSON(cmd.OutOrStdout(), vm.Render())
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&req.Filters.Classes, "class", nil, "Class IRI to show (repeatable)")
	f.StringArrayVar(&req.Filters.Properties, "property", nil, "Property IRI to show (repeatable)")
	f.StringArrayVar(&req.Filters.Individuals, "individual", nil, "Individual IRI to show (repeatable)")
	f.IntVar(&req.MaxNodes, "max", 0, "Maximum number of nodes (0 = configured default)")
	f.StringVar(&req.Selected, "selected", "", "IRI of the highlighted node")
	f.StringVar(&req.Query, "query", "", "Keep nodes whose label, comment or IRI contains this text")
	f.StringSliceVar(&types, "type", nil, "Keep only these node types")
	f.StringVar(&language, "lang", "", "Preferred label language (empty = none)")
	f.BoolVar(&req.IncludeOther, "other", false, "Include nodes classified as Other")
	f.BoolVar(&req.IncludeTypeEdges, "type-edges", false, "Include rdf:type edges")
	f.StringVar(&format, "format", "render", "Output shape: render or model")
	return cmd
}

func nodesCmd(flags *globalFlags) *cobra.Command {
	var (
		query string
		types []string
	)

	cmd := &cobra.Command{
		Use:   "nodes <file|url|->",
		Short: "List the classified nodes of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := classifier.ParseTypeTags(types)
			if err != nil {
				return err
			}
			app, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := load(ctx, app, cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			table, err := app.Service().Nodes(ctx, res.ID, query, tags)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNODE\tLABEL")
			for _, row := range table.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Type, row.QName, row.Label)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d nodes\n", table.Found, table.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Filter by label, comment or IRI substring")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Keep only these node types")
	return cmd
}

func triplesCmd(flags *globalFlags) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "triples <file|url|->",
		Short: "List every triple of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := load(ctx, app, cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			rows, err := app.Service().Triples(ctx, res.ID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SUBJECT\tPREDICATE\tOBJECT")
			for _, r := range rows {
				if full {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Subject, r.Predicate, r.Object)
				} else {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.SubjectQName, r.PredicateQName, r.ObjectQName)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print full IRIs instead of prefixed names")
	return cmd
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var (
		uris   []string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <file|url|->",
		Short: "Export the subgraph around selected nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(uris) == 0 {
				return fmt.Errorf("at least one --uri is required")
			}
			app, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := load(ctx, app, cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			out, err := app.Service().Export(ctx, res.ID, service.ExportRequest{URIs: uris, Format: format})
			if err != nil {
				return err
			}

			if output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), out.Body)
			} else {
				err = os.WriteFile(output, []byte(out.Body), 0o644)
			}
			if err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d triples (%s). Note: %s\n", out.Triples, out.Format.Name, export.OverInclusionNote)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&uris, "uri", nil, "Selected node IRI (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTurtle), "Output format: turtle, ntriples or jsonld")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr    string
		preload []string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				app.cfg.Server.Addr = addr
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := app.Start(ctx, ServeOptions{Preload: preload, Watch: watch}); err != nil {
				app.Shutdown(5 * time.Second)
				return err
			}
			app.logger.Info("Semview ready", "version", Version, "snapshots", len(app.Service().List()))

			<-ctx.Done()
			app.logger.Info("Received shutdown signal")
			app.Shutdown(30 * time.Second)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringArrayVar(&preload, "preload", nil, "File or glob pattern to load at startup (repeatable)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload preloaded files when they change")
	return cmd
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := flags.loadConfig(cmd)
				if err != nil {
					return err
				}
				data, err := cfg.YAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default user configuration if none exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.NewLoader(newLogger(cmd.ErrOrStderr(), flags.logLevel)).EnsureUserConfig()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}
