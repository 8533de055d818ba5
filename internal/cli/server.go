package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solmint/marketd/internal/config"
	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/core/ledger/service"
	"github.com/solmint/marketd/internal/rpc"
	"github.com/solmint/marketd/internal/storage/history"
	"github.com/solmint/marketd/internal/storage/nodestore"
)

var (
	// Server flags
	listenAddr  string
	genesisFile string
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketplace ledger daemon",
	Long: `Start the marketd server which provides:
- HTTP JSON-RPC API for transaction submission and ledger queries
- Standalone ledger close via the ledger_accept method
- Persistent node store and transaction history

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}

	serverCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides config)")
	serverCmd.Flags().StringVar(&genesisFile, "genesis", "", "path to genesis JSON file (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if genesisFile != "" {
		cfg.GenesisFile = genesisFile
	}

	log, err := buildLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	nodeStore, err := nodestore.Open(&nodestore.Config{
		Backend:          cfg.NodeDB.Type,
		Path:             cfg.NodeDB.Path,
		CacheSize:        cfg.NodeDB.CacheSize,
		CacheTTL:         cfg.NodeDB.CacheAge,
		Compressor:       cfg.NodeDB.Compression,
		CompressionLevel: cfg.NodeDB.CompressionLevel,
		CreateIfMissing:  true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open node store")
	}
	defer nodeStore.Close()

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return errors.Wrap(err, "failed to open transaction history")
	}
	defer hist.Close()

	genesis := ledger.DefaultGenesisConfig()
	if cfg.GenesisFile != "" {
		state, err := config.LoadGenesisFile(cfg.GenesisFile)
		if err != nil {
			return err
		}
		genesis.Accounts = state.Accounts
		genesis.CloseTime = state.CloseTime
	}

	svc, err := service.New(service.Config{
		Standalone: cfg.Standalone,
		Genesis:    genesis,
		NodeStore:  nodeStore,
		History:    hist,
		Logger:     log.Named("ledger"),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create ledger service")
	}
	if err := svc.Start(); err != nil {
		return errors.Wrap(err, "failed to start ledger service")
	}
	defer svc.Stop()

	rpcServer := rpc.NewServer(svc, hist, log.Named("rpc"), cfg.Server.RequestTimeout)

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      rpcServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting JSON-RPC server",
			zap.String("addr", cfg.Server.ListenAddr),
			zap.Bool("standalone", cfg.Standalone))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "rpc server failed")
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
