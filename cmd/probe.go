package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/plugins"
	"github.com/imyashkale/geoconnect/internal/registry"
	"github.com/imyashkale/geoconnect/internal/services"
	"github.com/spf13/cobra"
)

type probeOptions struct {
	serverType  string
	url         string
	catalogPath string
	timeout     time.Duration
	retryMax    int
}

func newProbeCmd() *cobra.Command {
	opts := &probeOptions{}

	cmd := &cobra.Command{
		Use:     "probe",
		Short:   "Check whether a server is alive without storing anything",
		Example: `  geoconnect probe --type WMS --url https://maps.example.com/wms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.serverType, "type", "", "Server type value from the catalog")
	cmd.Flags().StringVar(&opts.url, "url", "", "Server URL")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", os.Getenv("CATALOG_PATH"), "Catalog YAML file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Probe request timeout")
	cmd.Flags().IntVar(&opts.retryMax, "retries", 2, "Retries on transient failures")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runProbe(ctx context.Context, opts *probeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Init(envOr("LOG_LEVEL", "WARN"))

	cat, err := catalog.Load(opts.catalogPath)
	if err != nil {
		return err
	}
	reg := registry.New(cat)
	plugins.Register(reg, plugins.ProbeOptions{Timeout: opts.timeout, RetryMax: opts.retryMax})

	server := &models.Server{
		Id:         "cli",
		Title:      "probe",
		OwnerId:    "cli",
		ServerType: opts.serverType,
		URL:        opts.url,
	}
	if err := server.Validate(cat); err != nil {
		return err
	}

	liveness := services.NewLiveness(reg, nil)
	if liveness.BuildHandler(server, "") == nil {
		fmt.Printf("%s %s: no handler registered\n", server.ServerType, server.URL)
		return nil
	}

	alive := liveness.IsAlive(ctx, server, "")
	fmt.Printf("%s %s: alive=%t\n", server.ServerType, server.URL, alive)
	if !alive {
		return fmt.Errorf("server is not alive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
