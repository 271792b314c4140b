// Package root contains the root command for the application
package root

import (
	"fmt"
	"strings"
	"sync"

	"fjacquet/recurring-ledger/internal/config"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/validation"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to every command
type CommonFlags struct {
	ConfigFile string
	DBPath     string
	User       string
	Format     string
}

var (
	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "recurring-ledger",
		Short: "Track recurring income and expenses and the occurrences they produce.",
		Long: `recurring-ledger keeps recurring rules (rent, salary, subscriptions) and
expands them into a timeline of occurrences, each classified as paid, skipped,
overdue, due or upcoming against the transactions actually recorded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validation.IsValidOutputFormat(SharedFlags.Format)
		},
	}

	// SharedFlags holds the persistent flag values.
	SharedFlags = CommonFlags{}

	// ContainerOptions are applied to every container the commands open.
	ContainerOptions []container.Option

	initOnce sync.Once
)

// Init registers the persistent flags. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		flags := Cmd.PersistentFlags()
		flags.StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default: config.yaml in $HOME/.recurring-ledger, .recurring-ledger or .)")
		flags.StringVar(&SharedFlags.DBPath, "db", "", "SQLite database path (overrides database.path)")
		flags.StringVarP(&SharedFlags.User, "user", "u", config.GetEnv("RECUR_USER", ""), "User owning the data (env RECUR_USER)")
		flags.StringVarP(&SharedFlags.Format, "format", "f", "table", "Output format: table, json, yaml or csv")
	})
}

// LoadConfig reads the configuration and applies the flag overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(SharedFlags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if SharedFlags.DBPath != "" {
		cfg.Database.Path = SharedFlags.DBPath
	}
	return cfg, nil
}

// OpenContainer loads the configuration and wires the application. The
// caller closes the container.
func OpenContainer() (*container.Container, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return container.NewContainer(cfg, ContainerOptions...)
}

// User returns the --user value, failing when none was given.
func User() (string, error) {
	user := strings.TrimSpace(SharedFlags.User)
	if user == "" {
		return "", fmt.Errorf("no user given: pass --user or set RECUR_USER")
	}
	return user, nil
}

// WithContainer opens a container, runs fn and closes the container.
func WithContainer(fn func(*container.Container) error) error {
	c, err := OpenContainer()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}
