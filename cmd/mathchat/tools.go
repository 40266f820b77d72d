package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/leofalp/mathchat/providers/tool"
	"github.com/leofalp/mathchat/providers/tool/mathtool"
	"github.com/spf13/cobra"
)

func newToolsCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered to the model",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			registry := mathtool.NewRegistry()
			if asJSON {
				return writeToolsJSON(app.Stdout, registry)
			}
			return writeToolsTable(app.Stdout, registry)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the descriptors sent to the model as JSON")
	return cmd
}

func writeToolsJSON(w io.Writer, registry *tool.Registry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(registry.Descriptors()); err != nil {
		return fmt.Errorf("encode tools: %w", err)
	}
	return nil
}

func writeToolsTable(w io.Writer, registry *tool.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, name := range registry.Names() {
		definition, _ := registry.Get(name)
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%s\n", definition.Name, definition.Description)
		for _, param := range definition.Parameters {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", param.Name, param.Type, param.Description)
		}
	}
	return tw.Flush()
}
