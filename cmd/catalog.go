package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/spf13/cobra"
)

type catalogOptions struct {
	path   string
	output string
}

func newCatalogCmd() *cobra.Command {
	opts := &catalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the supported server and auth kinds",
		Example: `  # Print the built-in catalog
  geoconnect catalog

  # Validate and print a catalog override file as JSON
  geoconnect catalog --file catalog.yaml -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "file", "f", os.Getenv("CATALOG_PATH"), "Catalog YAML file (defaults to the built-in catalog)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

func runCatalog(opts *catalogOptions) error {
	cat, err := catalog.Load(opts.path)
	if err != nil {
		return err
	}

	var data []byte
	switch opts.output {
	case "yaml":
		data, err = cat.Marshal()
	case "json":
		data, err = json.MarshalIndent(cat, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", opts.output)
	}
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)
	return err
}
