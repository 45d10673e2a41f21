package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	configs "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/env"
	customLogger "github.com/socialdb/migrator/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   "migrator",
		Short: "Migrates social db state between contract accounts",
		Long:  "Copies all nodes and accounts from a read-only social db contract into a contract in genesis state.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file to load before reading config")
	rootCmd.PersistentFlags().String("rpc-url", "", "NEAR RPC url")
	rootCmd.PersistentFlags().String("rpc-network", "", "Network name, used to locate credentials")
	rootCmd.PersistentFlags().String("keystore-path", "", "Directory holding <network>/<account>.json credentials")
	rootCmd.PersistentFlags().String("keystore-signer", "", "Account signing the transactions (default is the destination)")
	rootCmd.PersistentFlags().String("source", "", "Account to migrate from")
	rootCmd.PersistentFlags().String("destination", "", "Account to migrate into")
	rootCmd.PersistentFlags().Int("page-size", 0, "How many items to fetch per view call")
	rootCmd.PersistentFlags().Int("chunk-size", 0, "How many items to commit per transaction")
	rootCmd.PersistentFlags().Uint64("gas", 0, "Gas attached to every transaction")
	rootCmd.PersistentFlags().Int("max-concurrent-pages", 0, "How many pages to fetch at once, 0 for no limit")
	rootCmd.PersistentFlags().Bool("resume", false, "Continue from the offsets committed by a previous run")
	rootCmd.PersistentFlags().String("finalize-status", "", "Status to set on the destination once everything is committed")
	rootCmd.PersistentFlags().Bool("metrics-enabled", false, "Serve prometheus metrics")
	rootCmd.PersistentFlags().Int("metrics-port", 0, "Port to serve prometheus metrics on")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	viper.BindPFlag("rpc.url", rootCmd.PersistentFlags().Lookup("rpc-url"))
	viper.BindPFlag("rpc.network", rootCmd.PersistentFlags().Lookup("rpc-network"))
	viper.BindPFlag("keystore.path", rootCmd.PersistentFlags().Lookup("keystore-path"))
	viper.BindPFlag("keystore.signerAccount", rootCmd.PersistentFlags().Lookup("keystore-signer"))
	viper.BindPFlag("migration.sourceAccount", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("migration.destinationAccount", rootCmd.PersistentFlags().Lookup("destination"))
	viper.BindPFlag("migration.pageSize", rootCmd.PersistentFlags().Lookup("page-size"))
	viper.BindPFlag("migration.chunkSize", rootCmd.PersistentFlags().Lookup("chunk-size"))
	viper.BindPFlag("migration.gas", rootCmd.PersistentFlags().Lookup("gas"))
	viper.BindPFlag("migration.maxConcurrentPages", rootCmd.PersistentFlags().Lookup("max-concurrent-pages"))
	viper.BindPFlag("migration.resume", rootCmd.PersistentFlags().Lookup("resume"))
	viper.BindPFlag("migration.finalizeStatus", rootCmd.PersistentFlags().Lookup("finalize-status"))
	viper.BindPFlag("metrics.enabled", rootCmd.PersistentFlags().Lookup("metrics-enabled"))
	viper.BindPFlag("metrics.port", rootCmd.PersistentFlags().Lookup("metrics-port"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() {
	env.Load(envFile)
	if err := configs.LoadConfig(cfgFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	customLogger.InitLogger()
}
