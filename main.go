package main

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/recurring-ledger/cmd/approve"
	"fjacquet/recurring-ledger/cmd/catalog"
	"fjacquet/recurring-ledger/cmd/occurrences"
	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/cmd/rule"
	"fjacquet/recurring-ledger/cmd/serve"
	"fjacquet/recurring-ledger/cmd/skip"
	"fjacquet/recurring-ledger/internal/config"

	"github.com/sirupsen/logrus"
)

func init() {
	// 1. Load .env silently; nothing is logged before the level is known
	_, _ = config.LoadEnv()

	// 2. Configure the global log level before any logger is created
	configureLogLevel()

	// 3. Register flags and subcommands
	root.Init()
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(rule.Cmd)
	root.Cmd.AddCommand(occurrences.Cmd)
	root.Cmd.AddCommand(approve.Cmd)
	root.Cmd.AddCommand(skip.Cmd)
	root.Cmd.AddCommand(skip.UnskipCmd)
	root.Cmd.AddCommand(catalog.Cmd)
}

// configureLogLevel applies LOG_LEVEL to the global logrus level and passes
// it on to the config layer unless RECUR_LOG_LEVEL is set.
func configureLogLevel() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		return
	}
	if os.Getenv(config.EnvPrefix+"_LOG_LEVEL") == "" {
		_ = os.Setenv(config.EnvPrefix+"_LOG_LEVEL", logLevelStr)
	}

	level, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		// Keep the default; config validation reports the bad value.
		return
	}
	logrus.SetLevel(level)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
