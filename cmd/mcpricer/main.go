// mcpricer 使用几何布朗运动路径的蒙特卡洛模拟为亚式平均行权价、回望与欧式期权定价。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "mcpricer"

var version = "v0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var confPath string

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Monte Carlo pricer for Asian, lookback and European options",
		Long: `mcpricer simulates geometric Brownian motion price paths and prices
average strike, lookback and European options on the same path batch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&confPath, "conf", "", "path to a TOML config file (defaults + APP_* env when empty)")

	root.AddCommand(newPriceCmd(&confPath))
	root.AddCommand(newServeCmd(&confPath))
	root.AddCommand(newVariantsCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", serviceName, version)
		},
	})
	return root
}
