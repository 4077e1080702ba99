/*
Package node does the initialization of all the required objects to run the
importer and the web3 service of the mirror node.

The Node contains several goroutines that run in the background.  One of them
periodically looks for new record file dumps in the import directory and
hands them, one at a time and in order, to the record file parser, which
writes them to the database through the batch accumulator.  Another one
serves the debug API, which exposes the importer stats, the metrics and the
call and gas estimation endpoints of the web3 service.
*/
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/russross/meddler"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/config"
	dbUtils "github.com/step-security-bot/hedera-mirror-node/database"
	"github.com/step-security-bot/hedera-mirror-node/database/importerdb"
	"github.com/step-security-bot/hedera-mirror-node/database/mirrordb"
	"github.com/step-security-bot/hedera-mirror-node/eventbus"
	"github.com/step-security-bot/hedera-mirror-node/evm"
	"github.com/step-security-bot/hedera-mirror-node/ingester"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/recordparser"
	"github.com/step-security-bot/hedera-mirror-node/test/debugapi"
	"golang.org/x/sync/errgroup"
)

// Node is the mirror node
type Node struct {
	cfg *config.Node

	bus         *eventbus.Bus
	accumulator *ingester.Accumulator
	parser      *recordparser.Parser
	calls       *evm.CallService
	debugAPI    *debugapi.DebugAPI

	sqlConnRead  *sqlx.DB
	sqlConnWrite *sqlx.DB
	ctx          context.Context
	wg           sync.WaitGroup
	cancel       context.CancelFunc
}

// NewNode creates a Node
func NewNode(cfg *config.Node) (*Node, error) {
	meddler.Debug = cfg.Debug.MeddlerLogs
	// Stablish DB connection
	dbWrite, err := dbUtils.InitSQLDB(
		cfg.PostgreSQL.PortWrite,
		cfg.PostgreSQL.HostWrite,
		cfg.PostgreSQL.UserWrite,
		cfg.PostgreSQL.PasswordWrite,
		cfg.PostgreSQL.NameWrite,
	)
	if err != nil {
		return nil, common.Wrap(fmt.Errorf("dbUtils.InitSQLDB: %w", err))
	}
	var dbRead *sqlx.DB
	if cfg.PostgreSQL.HostRead == "" {
		dbRead = dbWrite
	} else if cfg.PostgreSQL.HostRead == cfg.PostgreSQL.HostWrite {
		return nil, common.Wrap(fmt.Errorf(
			"PostgreSQL.HostRead and PostgreSQL.HostWrite must be different",
		))
	} else {
		dbRead, err = dbUtils.InitSQLDB(
			cfg.PostgreSQL.PortRead,
			cfg.PostgreSQL.HostRead,
			cfg.PostgreSQL.UserRead,
			cfg.PostgreSQL.PasswordRead,
			cfg.PostgreSQL.NameRead,
		)
		if err != nil {
			return nil, common.Wrap(fmt.Errorf("dbUtils.InitSQLDB: %w", err))
		}
	}

	n := &Node{
		cfg:          cfg,
		bus:          eventbus.NewBus(),
		sqlConnRead:  dbRead,
		sqlConnWrite: dbWrite,
	}
	if cfg.Importer.Enabled {
		importerDB := importerdb.NewImporterDB(dbWrite)
		writer := ingester.NewWriter(importerDB, n.bus)
		n.accumulator = ingester.NewAccumulator(ingester.Config{BatchSize: cfg.Importer.BatchSize}, writer)
		n.parser = recordparser.NewParser(n.accumulator, importerDB)
		n.bus.Subscribe(func(event eventbus.Event) {
			log.Debugw("Batch event", "event", fmt.Sprintf("%T", event))
		})
	}
	if cfg.Web3.Enabled {
		n.calls = evm.NewCallService(
			web3Config(cfg),
			evm.TransferExecutor{},
			evm.NewDatabaseStore(mirrordb.NewMirrorDB(dbRead)),
			dbUtils.NewConnectionController(cfg.Web3.MaxConcurrentCalls, cfg.Web3.CallTimeout),
		)
	}
	if cfg.Debug.APIAddress != "" {
		var stats debugapi.ParserStats
		if n.parser != nil {
			stats = n.parser
		}
		n.debugAPI = debugapi.NewDebugAPI(cfg.Debug.APIAddress, stats, n.calls)
	}
	return n, nil
}

func web3Config(cfg *config.Node) evm.Config {
	return evm.Config{
		MinGas: cfg.Web3.MinGas,
		MaxGas: cfg.Web3.MaxGas,
		Estimate: evm.EstimateConfig{
			Threshold:     cfg.Web3.Estimate.Threshold,
			MaxIterations: cfg.Web3.Estimate.MaxIterations,
		},
		Cache: evm.CacheConfig{
			Mode: cfg.Web3.Cache.Mode,
			TTL:  cfg.Web3.Cache.TTL,
			Size: cfg.Web3.Cache.Size,
		},
	}
}

// CallService returns the web3 call service, nil when disabled
func (n *Node) CallService() *evm.CallService {
	return n.calls
}

// importFile parses the record file dump at path
func (n *Node) importFile(ctx context.Context, path string) error {
	file, source, err := recordparser.LoadRecordFile(path)
	if err != nil {
		return common.Wrap(err)
	}
	return common.Wrap(n.parser.Parse(ctx, file, source))
}

// importLoopFn imports the pending dumps and returns the time to wait
// before looking for new ones
func (n *Node) importLoopFn(ctx context.Context) (time.Duration, error) {
	last := ""
	if file := n.parser.LastFile(); file != nil {
		last = file.Name
	}
	paths, err := recordparser.PendingFiles(n.cfg.Importer.Path, last)
	if err != nil {
		return n.cfg.Importer.PollInterval, common.Wrap(err)
	}
	for _, path := range paths {
		if err := n.importFile(ctx, path); err != nil {
			return n.cfg.Importer.PollInterval, common.Wrap(fmt.Errorf("%s: %w", path, err))
		}
	}
	return n.cfg.Importer.PollInterval, nil
}

// StartImporter starts the importer
func (n *Node) StartImporter() {
	log.Info("Starting Importer...")
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		waitDuration := time.Duration(0)
		for {
			select {
			case <-n.ctx.Done():
				log.Info("Importer done")
				return
			case <-time.After(waitDuration):
				var err error
				if waitDuration, err = n.importLoopFn(n.ctx); err != nil {
					if n.ctx.Err() != nil {
						continue
					}
					if errors.Is(err, common.ErrHashMismatch) {
						log.Warnw("Importer", "err", err)
					} else {
						log.Errorw("Importer", "err", err)
					}
				}
			}
		}
	}()
}

// StartDebugAPI starts the DebugAPI
func (n *Node) StartDebugAPI() {
	n.wg.Add(1)
	go func() {
		defer func() {
			log.Info("DebugAPI routine stopped")
			n.wg.Done()
		}()
		if err := n.debugAPI.Run(n.ctx); err != nil {
			log.Fatalw("DebugAPI.Run", "err", err)
		}
	}()
}

// Start the node
func (n *Node) Start() {
	log.Info("Starting node...")
	n.ctx, n.cancel = context.WithCancel(context.Background())
	if n.parser != nil {
		n.StartImporter()
	}
	if n.debugAPI != nil {
		n.StartDebugAPI()
	}
}

// Stop the node
func (n *Node) Stop() {
	log.Infow("Stopping node...")
	n.cancel()
	n.wg.Wait()
	n.bus.Close()
	var g errgroup.Group
	g.Go(n.sqlConnWrite.Close)
	if n.sqlConnRead != n.sqlConnWrite {
		g.Go(n.sqlConnRead.Close)
	}
	if err := g.Wait(); err != nil {
		log.Errorw("Closing database connections", "err", err)
	}
	log.Info("Node stopped")
}
