// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/log"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strix",
	Short: "Strix - Wire-format probe crafting toolkit",
	Long: `Strix crafts raw network probes from declarative protocol stacks.
Headers are generated field by field from built-in protocol descriptors
(ipv4, icmpv4, tcp, udp); lengths, protocol numbers and checksums are
derived from the final layout unless pinned by the caller.

Features:
  - Layered stacks: any "/"-separated descriptor chain, e.g. ipv4/udp
  - Field control: override any header field from flags or config presets
  - Correct checksums: RFC 1071 with the IPv4 pseudo-header for tcp/udp
  - Inspectable output: hex, raw bytes, or a decoded summary`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")
}

// loadConfig loads the global configuration and initializes logging from it.
func loadConfig() *config.GlobalConfig {
	cfg, err := config.Load(configFile)
	if err != nil {
		exitWithError("failed to load config", err)
	}
	log.Init(cfg.Log)
	return cfg
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
