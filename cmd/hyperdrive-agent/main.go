// Command hyperdrive-agent runs inside the spot instance: it is the
// process cloud-init execs after writing /etc/hyperdrive/agent.json
// (§4.7). It never exits cleanly — its terminal action is powering
// off the instance it runs on.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rvalieris/hyperdrive/pkg/agent"
	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/logger"
)

func main() {
	configPath := flag.String("config", "/etc/hyperdrive/agent.json", "path to the agent's JSON config")
	flag.Parse()

	logger.InitGlobalLogger(true)
	ctx := context.Background()

	if err := run(ctx, *configPath); err != nil {
		logger.Errorf("fatal: %v", err)
		agent.Poweroff()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := agent.LoadConfig(configPath)
	if err != nil {
		return err
	}

	identity, err := agent.FetchInstanceIdentity(ctx)
	if err != nil {
		return err
	}

	clients, err := cloudapi.NewClientsInRegion(ctx, identity.Region)
	if err != nil {
		return err
	}

	return agent.Run(ctx, cfg, clients)
}
