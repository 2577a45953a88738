package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vitalvas/apiecho/api"
	"github.com/vitalvas/apiecho/config"
	"github.com/vitalvas/apiecho/logging"
	"github.com/vitalvas/apiecho/openapi"
)

type serveOptions struct {
	Address          string
	Strategy         string
	SchemaMode       string
	ValidateRequests bool
	MaxConnections   int
	MaxBodyBytes     int64
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	CORSOrigins      []string
	LogLevel         string
	LogFormat        string
	LogFile          string
}

func (o *serveOptions) register(fs *pflag.FlagSet) {
	def := config.Default()

	fs.StringVar(&o.Address, "address", def.Server.Address, "Listen address (host:port)")
	fs.StringVar(&o.Strategy, "strategy", string(def.Document.Strategy), "Document serialization: eager or lazy")
	fs.StringVar(&o.SchemaMode, "schema-mode", string(def.Document.SchemaMode), "Record schema: derived or explicit")
	fs.BoolVar(&o.ValidateRequests, "validate-requests", def.Server.ValidateRequests, "Validate requests against the document")
	fs.IntVar(&o.MaxConnections, "max-connections", def.Server.MaxConnections, "Maximum concurrent connections (0 is unlimited)")
	fs.Int64Var(&o.MaxBodyBytes, "max-body-bytes", def.Server.MaxBodyBytes, "Maximum request body size")
	fs.DurationVar(&o.ReadTimeout, "read-timeout", def.Server.ReadTimeout, "HTTP read timeout")
	fs.DurationVar(&o.WriteTimeout, "write-timeout", def.Server.WriteTimeout, "HTTP write timeout")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", def.Server.ShutdownTimeout, "Graceful shutdown timeout")
	fs.StringSliceVar(&o.CORSOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable)")
	fs.StringVar(&o.LogLevel, "log-level", def.Logging.Level, "Log level: debug, info, warn or error")
	fs.StringVar(&o.LogFormat, "log-format", def.Logging.Format, "Log format: auto, text or json")
	fs.StringVar(&o.LogFile, "log-file", "", "Also write logs to this file, rotated by size")
}

// apply copies the flags set on the command line over cfg.
func (o *serveOptions) apply(fs *pflag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "address":
			cfg.Server.Address = o.Address
		case "strategy":
			cfg.Document.Strategy = openapi.Strategy(o.Strategy)
		case "schema-mode":
			cfg.Document.SchemaMode = config.SchemaMode(o.SchemaMode)
		case "validate-requests":
			cfg.Server.ValidateRequests = o.ValidateRequests
		case "max-connections":
			cfg.Server.MaxConnections = o.MaxConnections
		case "max-body-bytes":
			cfg.Server.MaxBodyBytes = o.MaxBodyBytes
		case "read-timeout":
			cfg.Server.ReadTimeout = o.ReadTimeout
		case "write-timeout":
			cfg.Server.WriteTimeout = o.WriteTimeout
		case "shutdown-timeout":
			cfg.Server.ShutdownTimeout = o.ShutdownTimeout
		case "cors-origin":
			cfg.CORS.AllowedOrigins = o.CORSOrigins
		case "log-level":
			cfg.Logging.Level = o.LogLevel
		case "log-format":
			cfg.Logging.Format = o.LogFormat
		case "log-file":
			cfg.Logging.File = o.LogFile
		}
	})
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the echo API and the OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			opts.apply(cmd.Flags(), cfg)

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := logging.New(cfg.Logging, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closer.Close()

			srv, err := api.NewServer(cfg, api.WithLogger(logger))
			if err != nil {
				logger.Error("failed to start", "error", err)
				return fmt.Errorf("start server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	opts.register(cmd.Flags())

	return cmd
}
