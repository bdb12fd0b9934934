// Command sairen runs the drilling operational-intelligence pipeline.
// Structurally grounded on teacher cmd/cryptorun/main.go's cobra root
// + zerolog bootstrap; generalized from cryptorun's menu-first,
// dozens-of-subcommands shape down to the two subcommands spec.md §6
// calls out (run, replay).
package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/config"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/persistence"
	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/sensors"
)

const appName = "sairen"

// Exit codes per spec.md §6.
const (
	exitSuccess  = 0
	exitConfig   = 1
	exitInput    = 2
	exitInternal = 3
)

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Real-time drilling operational-intelligence engine",
	}

	rootCmd.PersistentFlags().String("config", "", "path to well-config TOML file")
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReplayCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor classifies err against the sentinel errors each
// collaborator package declares, per spec.md §6/§7.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, config.ErrConfig):
		return exitConfig
	case errors.Is(err, sensors.ErrInputParse), errors.Is(err, sensors.ErrTransientIO):
		return exitInput
	case errors.Is(err, persistence.ErrStorage):
		return exitInternal
	default:
		return exitInternal
	}
}
