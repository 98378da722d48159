package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/sheaf/pkg/core"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every note as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		notes := slices.Collect(st.Repo.GetNotes(""))
		if notes == nil {
			notes = []core.Note{}
		}

		out := cmd.OutOrStdout()
		switch exportFormat {
		case "json":
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		case "yaml", "yml":
			encoder := yaml.NewEncoder(out)
			encoder.SetIndent(2)
			if err := encoder.Encode(notes); err != nil {
				return fmt.Errorf("failed to encode yaml: %w", err)
			}
			return encoder.Close()
		default:
			return fmt.Errorf("unsupported format %q (use json or yaml)", exportFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or yaml")
}
