// Package cmd implements the CLI Facade (C8): the cobra command tree
// dispatching onto C1-C6, grounded on
// Lens/bootstrap/installer/internal/cmd/root.go's command structure.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/catalog"
	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/config"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
	"github.com/rvalieris/hyperdrive/pkg/launcher"
	"github.com/rvalieris/hyperdrive/pkg/lifecycle"
	"github.com/rvalieris/hyperdrive/pkg/logger"
	"github.com/rvalieris/hyperdrive/pkg/priceoracle"
)

var (
	configFile string
	verbose    bool
)

// rootCmd is the hyperdrive CLI entry point.
var rootCmd = &cobra.Command{
	Use:           "hyperdrive",
	Short:         "Spot-instance cluster scheduler for workflow engines",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree; the caller is responsible for
// mapping the returned error to an exit code (§6).
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "hyperdrive.yaml", "path to the scheduler config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
}

// runtime bundles everything a subcommand needs after config and the
// cache are loaded.
type runtime struct {
	cfg      *config.Config
	cache    *cache.Cache
	clients  *cloudapi.Clients
	catalog  *catalog.Catalog
	prices   *priceoracle.PriceOracle
	launcher *launcher.Launcher
	tracker  *lifecycle.Tracker
}

// newRuntime wires every component together the way main() in a
// long-running service would, except it is rebuilt on each
// short-lived CLI invocation (§5).
func newRuntime(ctx context.Context) (*runtime, func(), error) {
	logger.InitGlobalLogger(verbose)

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, func() {}, err
	}

	c, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() { _ = c.Close() }

	clients, err := cloudapi.NewClients(ctx)
	if err != nil {
		closeFn()
		return nil, func() {}, hderrors.NewError().WithCode(hderrors.CodeCloudUnavailable).
			WithMessage("constructing AWS clients").WithError(err)
	}

	features, err := catalog.DefaultFeatures()
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}

	cat := catalog.New(c, clients, features)
	prices := priceoracle.New(c, clients)
	l := launcher.New(c, clients, cfg)
	tracker := lifecycle.New(c, clients, prices, l, cfg.JobQueueURL)

	return &runtime{
		cfg: cfg, cache: c, clients: clients,
		catalog: cat, prices: prices, launcher: l, tracker: tracker,
	}, closeFn, nil
}

func fail(code hderrors.Code, msg string, err error) error {
	return hderrors.NewError().WithCode(code).WithMessage(msg).WithError(err)
}
