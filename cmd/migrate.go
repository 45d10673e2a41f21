package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	config "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/common"
	"github.com/socialdb/migrator/internal/keystore"
	"github.com/socialdb/migrator/internal/migrator"
	"github.com/socialdb/migrator/internal/rpc"
	"github.com/socialdb/migrator/internal/storage"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "run the migration",
	Long:  "fetch all nodes and accounts from the source account and commit them to the destination account in batches",
	Run:   RunMigrate,
}

func RunMigrate(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Msgf("Received signal %v, stopping after the current call", sig)
		cancel()
	}()

	if config.Cfg.Metrics.Enabled {
		startMetricsServer(config.Cfg.Metrics.Port)
	}

	client, err := rpc.Initialize()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize RPC")
	}
	defer client.Close()
	log.Info().Str("rpc", client.GetURL()).Msg("Connected to RPC")

	key, err := loadSigner()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load signer key")
	}
	log.Info().Str("signer", key.AccountID()).Str("public_key", key.PublicKeyString()).Msg("Loaded signer key")

	progress, err := storage.NewConnector(&config.Cfg.Storage.Progress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize progress storage")
	}
	defer progress.Close()

	remote := migrator.NewRPCRemote(client, key)
	orchestrator, err := migrator.NewOrchestrator(migrationConfig(), remote, remote, progress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create orchestrator")
	}

	if err := orchestrator.Run(ctx); err != nil {
		// deferred closes don't run after Fatal
		progress.Close()
		log.Fatal().Stack().Err(err).Str("state", orchestrator.State().String()).Msg("Migration failed")
	}
}

func migrationConfig() migrator.Config {
	m := config.Cfg.Migration
	return migrator.Config{
		SourceAccount:      m.SourceAccount,
		DestinationAccount: m.DestinationAccount,
		PageSize:           m.PageSize,
		ChunkSize:          m.ChunkSize,
		Gas:                m.Gas,
		MaxConcurrentPages: m.MaxConcurrentPages,
		Resume:             m.Resume,
		FinalizeStatus:     common.AccountStatus(m.FinalizeStatus),
	}
}

func loadSigner() (*keystore.Key, error) {
	signer := config.Cfg.Keystore.SignerAccount
	if signer == "" {
		signer = config.Cfg.Migration.DestinationAccount
	}
	return keystore.Load(config.Cfg.Keystore.Path, config.Cfg.RPC.Network, signer)
}

func startMetricsServer(port int) {
	log.Info().Msgf("Starting Metrics Server on port %d", port)
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil); err != nil {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()
}
