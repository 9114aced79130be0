package main

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vango-dev/autoroute/internal/config"
	"github.com/vango-dev/autoroute/internal/errors"
	"github.com/vango-dev/autoroute/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬ ┬┌┬┐┌─┐┬─┐┌─┐┬ ┬┌┬┐┌─┐
  ├─┤│ │ │ │ │├┬┘│ ││ │ │ ├┤
  ┴ ┴└─┘ ┴ └─┘┴└─└─┘└─┘ ┴ └─┘
`

// cli holds what every command needs after flag parsing.
type cli struct {
	configPath string
	envFile    string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "autoroute",
		Short: "Mount a directory tree of route files on a chi router",
		Long: `autoroute discovers route files by convention.

A file's place under the route root decides its URL prefix, its
route-name prefix and its middleware group:

  routes/api/users.toml  →  /api/users, names api.users.*, group "api"

Settings come from autoroute.toml, an optional autoroute.<env>.toml
overlay selected by AUTOROUTE_ENV, and AUTOROUTE_* variables, which
may also be set in a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to autoroute.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		routesCmd(c),
		serveCmd(c),
		versionCmd(),
	)

	return rootCmd
}

// setup loads the dotenv file and the configuration, then builds the logger.
func (c *cli) setup() error {
	if c.noColor || os.Getenv("NO_COLOR") != "" {
		errors.DisableColors()
	}

	if c.envFile != "" {
		// Variables already set in the environment win over the file.
		if err := godotenv.Load(c.envFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return errors.Newf(errors.CategoryConfig, "load %s", c.envFile).Wrap(err)
		}
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logging.New(&cfg.Logging, os.Stderr)
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFile(c.configPath)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if root, err := config.FindProjectRoot(wd); err == nil {
		return config.Load(root)
	}
	return config.Load(wd)
}

// printBanner prints the autoroute ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
