// Package log wires process-wide structured logging and holds CLI
// progress/spinner helpers (progress.go) that cmd/sairen does not
// currently call. Grounded on teacher
// cmd/cryptorun/main.go's zerolog bootstrap (TimeFieldFormat, a
// zerolog.ConsoleWriter on stderr for TTYs, JSON on everything else)
// and golang.org/x/term's TTY detection.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Init configures the global zerolog logger. When stderr is a TTY it
// writes a human-readable console format (teacher's ConsoleWriter
// pattern); otherwise it writes newline-delimited JSON, the shape a
// supervisor or log shipper expects.
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
