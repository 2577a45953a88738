package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitalvas/apiecho/api"
	"github.com/vitalvas/apiecho/config"
	"github.com/vitalvas/apiecho/openapi"
)

func newSpecCmd() *cobra.Command {
	var (
		format     string
		output     string
		schemaMode string
	)

	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Write the OpenAPI document",
		Long: "Write the OpenAPI document the server would publish.\n\n" +
			"Without --format the encoding follows the --output extension\n" +
			"(.yaml and .yml select YAML) and defaults to JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := specEncoding(format, output)
			if err != nil {
				return err
			}

			cfg := config.Load()
			cfg.Document.Strategy = openapi.StrategyLazy
			if cmd.Flags().Changed("schema-mode") {
				cfg.Document.SchemaMode = config.SchemaMode(schemaMode)
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			srv, err := api.NewServer(cfg, api.WithLogger(logger))
			if err != nil {
				return err
			}

			data, err := srv.Cache().Get(enc)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Document format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&schemaMode, "schema-mode", string(config.SchemaDerived), "Record schema: derived or explicit")
	_ = cmd.MarkFlagFilename("output", "json", "yaml", "yml")

	return cmd
}

func specEncoding(format, output string) (openapi.Encoding, error) {
	switch strings.ToLower(format) {
	case "json":
		return openapi.EncodingJSON, nil
	case "yaml", "yml":
		return openapi.EncodingYAML, nil
	case "":
		switch strings.ToLower(filepath.Ext(output)) {
		case ".yaml", ".yml":
			return openapi.EncodingYAML, nil
		}
		return openapi.EncodingJSON, nil
	}
	return "", fmt.Errorf("invalid --format %q (expected json or yaml)", format)
}
