package main

import (
	"fmt"
	"log"
	"os"

	"PhyChain/cmd/phychain/config"
	"PhyChain/pkg/fec"
	"PhyChain/pkg/layers"
	"PhyChain/pkg/pipeline"
	"PhyChain/pkg/recovery"

	"gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file",
		Value: "config.yml",
	}
	pushgatewayFlag = cli.StringFlag{
		Name:  "pushgateway",
		Usage: "Pushgateway URL the run metrics are pushed to",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "Trace every stage on stderr",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "phychain"
	app.Usage = "send images over a simulated noisy channel and recover them"
	app.Flags = []cli.Flag{configFlag, pushgatewayFlag, debugFlag}
	app.Before = func(ctx *cli.Context) error {
		if ctx.GlobalBool(debugFlag.Name) {
			fec.Debug = true
			layers.Debug = true
			recovery.Debug = true
			pipeline.Debug = true
		}
		return nil
	}
	app.Commands = []cli.Command{
		simulateCommand,
		batchCommand,
		sweepCommand,
		frameCommand,
		decodeCommand,
		verifyCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig falls back to the defaults when the default file is absent.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	filename := ctx.GlobalString(configFlag.Name)
	cfg, err := config.LoadConfig(filename)
	if os.IsNotExist(err) && !ctx.GlobalIsSet(configFlag.Name) {
		log.Printf("[Config] %s not found, using defaults\n", filename)
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return cfg, nil
}

func pushMetrics(ctx *cli.Context, cfg *config.Config, metrics *pipeline.Metrics, runID string) error {
	url := cfg.Metrics.Pushgateway
	if ctx.GlobalIsSet(pushgatewayFlag.Name) {
		url = ctx.GlobalString(pushgatewayFlag.Name)
	}
	if url == "" {
		return nil
	}
	if err := metrics.Push(url, cfg.Metrics.Job, runID); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	log.Printf("[Metrics] pushed run %s to %s\n", runID, url)
	return nil
}
