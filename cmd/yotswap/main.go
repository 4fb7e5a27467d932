package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yotswap/pkg/config"
	"yotswap/pkg/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "yotswap",
	Short: "Swap client for the YOT/YOS multi-hub program",
	Long: `yotswap prices and executes swaps against the YOT multi-hub program,
working around the program's liquidity-account contention defect with a
configurable recovery strategy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .yotswap.yaml)")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(contributionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() error {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	logger = log
	return nil
}
