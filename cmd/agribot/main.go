package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "agribot",
	Short: "AgriBot - farm advisory dashboard",
	Long: `AgriBot drives the SmartRoots farm advisory backend: sensor readings,
crop recommendations, weather-based advice, yield predictions, market
prices and the advisory chat assistant.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
