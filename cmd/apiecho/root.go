package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "apiecho",
		Short: "Echo API with a cached OpenAPI document",
		Long: "Echo API with a cached OpenAPI document.\n\n" +
			"Settings are read from APIECHO_* environment variables; flags override them.\n\n" +
			"Examples:\n" +
			"  apiecho serve --address 127.0.0.1:3000\n" +
			"  apiecho serve --strategy lazy --schema-mode explicit\n" +
			"  apiecho spec --format yaml -o openapi.yaml\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate("{{.Version}}\n")
	root.Version = versionString()

	root.AddCommand(newServeCmd())
	root.AddCommand(newSpecCmd())
	root.AddCommand(newVersionCmd())

	return root
}
