// Copyright © 2018 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	colorFlag string
	verbose   int

	// configErr is the result of reading the config file.
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "balsp",
	Short: "balsp: completion and diagnostics for Ballerina sources",
	Long: `balsp resolves the scope around a cursor in a Ballerina source file and
proposes the identifiers, keywords and snippets that are valid there.  It runs
as a language server or from the command line.

Getting started:
  balsp lsp --stdio                  Serve editors over stdin/stdout
  balsp complete main.bal:4:2        List candidates at line 4, column 2
  balsp check pkg/main.bal           Report syntax errors and lint findings
  balsp repl                         Type a document and complete with Tab

Positions given to complete are zero-based, as in the Language Server
Protocol.  Columns count bytes.

Configuration is read from $HOME/.balsp.yaml (or --config) and from
environment variables prefixed with BALSP_:
  source-root      directory package names are resolved against
                   (default: located from the nearest Ballerina.toml)
  analysis.phase   parse, define or analyze (default: define)
  log.level        none, critical, error, warning, notice, info or debug
  log.file         write logs to this file instead of stderr
  lsp.debounce     delay before diagnostics of an edited document (300ms)

For example BALSP_LOG_LEVEL=debug balsp lsp.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := configureLogging(viper.GetString(keyLogLevel), viper.GetString(keyLogFile), verbose); err != nil {
			return err
		}
		var notFound viper.ConfigFileNotFoundError
		switch {
		case configErr == nil:
			log.Infof("using config file %s", viper.ConfigFileUsed())
		case errors.As(configErr, &notFound):
		default:
			return fmt.Errorf("config: %w", configErr)
		}
		return nil
	},
}

// exitError ends the process with code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// exitCode returns the process exit code for err.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		return ee.code
	default:
		return 2
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	var ee *exitError
	if err != nil && !errors.As(err, &ee) {
		fmt.Fprintf(os.Stderr, "balsp: %v\n", err)
	}
	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.balsp.yaml)")
	flags.StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	flags.CountVarP(&verbose, "verbose", "v", "Log more; repeat for more detail.")
	flags.String("source-root", "", "Directory that package names are resolved against.")
	flags.String("phase", "", "Analysis phase for completion: parse, define or analyze.")
	flags.String("log-level", "", "Log level (default warning).")
	flags.String("log-file", "", "Write logs to a file.")
	mustBind(keySourceRoot, flags.Lookup("source-root"))
	mustBind(keyPhase, flags.Lookup("phase"))
	mustBind(keyLogLevel, flags.Lookup("log-level"))
	mustBind(keyLogFile, flags.Lookup("log-file"))

	rootCmd.AddCommand(
		CheckCommand(),
		CompleteCommand(),
		LSPCommand(),
		ReplCommand(),
	)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("BALSP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".balsp")
		viper.SetConfigType("yaml")
	}
	configErr = viper.ReadInConfig()
}
