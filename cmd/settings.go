// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/compiler"
	"github.com/luthersystems/balsp/lsp"
)

var log = commonlog.GetLogger("balsp.cmd")

// Configuration keys.
const (
	keySourceRoot  = "source-root"
	keyPhase       = "analysis.phase"
	keyLogLevel    = "log.level"
	keyLogFile     = "log.file"
	keyLSPDebounce = "lsp.debounce"
)

func init() {
	viper.SetDefault(keyPhase, compiler.PhaseDefine.String())
	viper.SetDefault(keyLogLevel, "warning")
	viper.SetDefault(keyLSPDebounce, lsp.DefaultDebounce)
}

// settings are the configuration values shared by the subcommands.
type settings struct {
	sourceRoot string
	phase      compiler.Phase
	debounce   time.Duration
}

func loadSettings() (settings, error) {
	phase, err := compiler.ParsePhase(viper.GetString(keyPhase))
	if err != nil {
		return settings{}, fmt.Errorf("%s: %w", keyPhase, err)
	}
	debounce := viper.GetDuration(keyLSPDebounce)
	if debounce < 0 {
		return settings{}, fmt.Errorf("%s: negative duration %v", keyLSPDebounce, debounce)
	}
	return settings{
		sourceRoot: viper.GetString(keySourceRoot),
		phase:      phase,
		debounce:   debounce,
	}, nil
}

// engineOptions returns the completion engine options for s followed by
// those of cfg.
func (s settings) engineOptions(cfg *cmdConfig) []completion.Option {
	opts := []completion.Option{completion.WithPhase(s.phase)}
	if s.sourceRoot != "" {
		opts = append(opts, completion.WithSourceRoot(s.sourceRoot))
	}
	return append(opts, cfg.engineOpts...)
}

// logVerbosity maps level names onto commonlog verbosity.
var logVerbosity = map[string]int{
	"none":     -4,
	"critical": -3,
	"error":    -2,
	"warning":  -1,
	"notice":   0,
	"info":     1,
	"debug":    2,
}

// configureLogging sets up the commonlog backend.  Each verbose flag
// raises the level by one step.
func configureLogging(level, file string, verbose int) error {
	v, ok := logVerbosity[strings.ToLower(level)]
	if !ok {
		return fmt.Errorf("%s: unknown level %q", keyLogLevel, level)
	}
	var path *string
	if file != "" {
		path = &file
	}
	commonlog.Configure(v+verbose, path)
	return nil
}

// mustBind binds a configuration key to a flag that is known to exist.
func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
