package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/config"
	dbUtils "github.com/step-security-bot/hedera-mirror-node/database"
	"github.com/step-security-bot/hedera-mirror-node/database/importerdb"
	"github.com/step-security-bot/hedera-mirror-node/eventbus"
	"github.com/step-security-bot/hedera-mirror-node/ingester"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/node"
	"github.com/step-security-bot/hedera-mirror-node/recordparser"
	"github.com/urfave/cli"
)

const (
	flagCfg         = "cfg"
	flagYes         = "yes"
	flagNMigrations = "n"
)

var (
	// Version represents the program based on the git tag
	Version = "v0.1.0"
)

func getConfig(c *cli.Context) (*config.Node, error) {
	cfg, err := config.LoadNode(c.GlobalString(flagCfg))
	if err != nil {
		return nil, common.Wrap(err)
	}
	log.Init(cfg.Log.Level, cfg.Log.Out)
	return cfg, nil
}

func openDB(cfg *config.Node) (*importerdb.ImporterDB, error) {
	db, err := dbUtils.InitSQLDB(
		cfg.PostgreSQL.PortWrite,
		cfg.PostgreSQL.HostWrite,
		cfg.PostgreSQL.UserWrite,
		cfg.PostgreSQL.PasswordWrite,
		cfg.PostgreSQL.NameWrite,
	)
	if err != nil {
		return nil, common.Wrap(fmt.Errorf("dbUtils.InitSQLDB: %w", err))
	}
	return importerdb.NewImporterDB(db), nil
}

func waitSigInt() {
	stopCh := make(chan interface{})

	// catch ^C to send the stop signal
	ossig := make(chan os.Signal, 1)
	signal.Notify(ossig, os.Interrupt)
	const forceStopCount = 3
	go func() {
		n := 0
		for sig := range ossig {
			if sig == os.Interrupt {
				log.Info("Received Interrupt Signal")
				stopCh <- nil
				n++
				if n == forceStopCount {
					log.Fatalf("Received %v Interrupt Signals", forceStopCount)
				}
			}
		}
	}()
	<-stopCh
}

func cmdRun(c *cli.Context) error {
	cfg, err := getConfig(c)
	if err != nil {
		return common.Wrap(fmt.Errorf("error parsing flags and config: %w", err))
	}
	innerNode, err := node.NewNode(cfg)
	if err != nil {
		return common.Wrap(fmt.Errorf("error starting node: %w", err))
	}
	innerNode.Start()
	waitSigInt()
	innerNode.Stop()
	return nil
}

func cmdImport(c *cli.Context) error {
	cfg, err := getConfig(c)
	if err != nil {
		return common.Wrap(fmt.Errorf("error parsing flags and config: %w", err))
	}
	idb, err := openDB(cfg)
	if err != nil {
		return common.Wrap(err)
	}
	defer idb.DB().Close() //nolint:errcheck
	bus := eventbus.NewBus()
	defer bus.Close()
	accumulator := ingester.NewAccumulator(ingester.Config{BatchSize: cfg.Importer.BatchSize},
		ingester.NewWriter(idb, bus))
	parser := recordparser.NewParser(accumulator, idb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		waitSigInt()
		cancel()
	}()
	for _, path := range c.Args() {
		file, source, err := recordparser.LoadRecordFile(path)
		if err != nil {
			return common.Wrap(err)
		}
		if err := parser.Parse(ctx, file, source); err != nil {
			return common.Wrap(fmt.Errorf("%s: %w", path, err))
		}
	}
	stats := parser.Stats()
	log.Infow("Import done", "files", stats.Files, "records", stats.Records)
	return nil
}

func cmdMigrateUp(c *cli.Context) error {
	cfg, err := getConfig(c)
	if err != nil {
		return common.Wrap(err)
	}
	// InitSQLDB runs the pending migrations
	idb, err := openDB(cfg)
	if err != nil {
		return common.Wrap(err)
	}
	return common.Wrap(idb.DB().Close())
}

func cmdMigrateDown(c *cli.Context) error {
	if !c.Bool(flagYes) {
		fmt.Print("*WARNING* Are you sure you want to revert the migrations of the SQL DB? [y/N]: ")
		var input string
		if _, err := fmt.Scanln(&input); err != nil {
			return common.Wrap(err)
		}
		input = strings.ToLower(input)
		if !(input == "y" || input == "yes") {
			return nil
		}
	}
	cfg, err := getConfig(c)
	if err != nil {
		return common.Wrap(err)
	}
	db, err := dbUtils.ConnectSQLDB(
		cfg.PostgreSQL.PortWrite,
		cfg.PostgreSQL.HostWrite,
		cfg.PostgreSQL.UserWrite,
		cfg.PostgreSQL.PasswordWrite,
		cfg.PostgreSQL.NameWrite,
	)
	if err != nil {
		return common.Wrap(err)
	}
	defer db.Close() //nolint:errcheck
	log.Info("Reverting migrations...")
	if err := dbUtils.MigrationsDown(db.DB, c.Uint(flagNMigrations)); err != nil {
		return common.Wrap(err)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "mirror-node"
	app.Version = Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  flagCfg,
			Usage: "Node configuration `FILE`",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Run the mirror node importer and web3 service",
			Action: cmdRun,
		},
		{
			Name:      "import",
			Usage:     "Import record file dumps, in the given order, and exit",
			ArgsUsage: "FILE...",
			Action:    cmdImport,
		},
		{
			Name:  "migrate",
			Usage: "Manage the migrations of the SQL DB",
			Subcommands: []cli.Command{
				{
					Name:   "up",
					Usage:  "Apply the pending migrations",
					Action: cmdMigrateUp,
				},
				{
					Name:   "down",
					Usage:  "Revert migrations",
					Action: cmdMigrateDown,
					Flags: []cli.Flag{
						cli.BoolFlag{
							Name:  flagYes,
							Usage: "automatic yes to the prompt",
						},
						cli.UintFlag{
							Name:  flagNMigrations,
							Usage: "number of migrations to revert, 0 reverts all of them",
						},
					},
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Printf("\nError: %v\n", common.Wrap(err))
		os.Exit(1)
	}
}
