// Root command for the keepitup CLI.
package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/keepitup/internal/logging"
	"github.com/mesh-intelligence/keepitup/internal/paths"
	"github.com/mesh-intelligence/keepitup/pkg/keepitup"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// state is shared by all subcommands of one invocation.
type state struct {
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagLogLevel  string
	flagLogFormat string

	configDir string
	v         *viper.Viper
	prefs     types.Preferences

	out    io.Writer
	errOut io.Writer
}

// skipConfig lists commands that run without loading config.yaml.
var skipConfig = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	st := &state{out: out, errOut: errOut, prefs: types.DefaultPreferences()}

	root := &cobra.Command{
		Use:   "keepitup",
		Short: "KeepItUp probes network hosts on a schedule",
		Long: `KeepItUp checks hosts by ping, TCP connect or HTTP download on a
schedule, keeps a bounded log of the results and reports failures.`,
		Version:       keepitup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := st.setupLogging(nil); err != nil {
				return userError(err)
			}
			if skipConfig[cmd.Name()] {
				return nil
			}
			return classify(st.load())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&st.flagConfigDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/keepitup)")
	pf.StringVar(&st.flagDataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/keepitup)")
	pf.BoolVar(&st.flagJSON, "json", false, "output as JSON")
	pf.StringVar(&st.flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&st.flagLogFormat, "log-format", logging.FormatText, "log format (text, json)")

	root.AddCommand(
		newVersionCmd(st),
		newInitCmd(st),
		newConfigCmd(st),
		newTaskCmd(st),
		newLogCmd(st),
		newIntervalCmd(st),
		newAccessCmd(st),
		newProbeCmd(st),
		newRunCmd(st),
		newServiceCmd(st),
		newWatchCmd(st),
		newExportCmd(st),
		newImportCmd(st),
		newHousekeepCmd(st),
		newFilesCmd(st),
	)
	return root
}

// load resolves the config dir, reads config.yaml and the preferences.
func (st *state) load() error {
	configDir, err := paths.ResolveConfigDir(st.flagConfigDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	prefs, err := preferencesFrom(v)
	if err != nil {
		return err
	}
	st.configDir, st.v, st.prefs = configDir, v, prefs
	return nil
}

// resolveDataDir follows --data-dir > config.yaml data_dir >
// KEEPITUP_DATA_DIR > platform default.
func (st *state) resolveDataDir() (string, error) {
	configured := ""
	if st.v != nil {
		configured = st.v.GetString(cfgKeyDataDir)
	}
	return paths.ResolveDataDir(st.flagDataDir, configured)
}

// setupLogging installs the process-wide logger. file, when set, receives
// a copy of every record.
func (st *state) setupLogging(file io.Writer) error {
	l, err := logging.New(logging.Options{
		Level:  st.flagLogLevel,
		Format: st.flagLogFormat,
		Writer: st.errOut,
		File:   file,
	})
	if err != nil {
		return err
	}
	logging.Set(l)
	return nil
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(errOut, "keepitup:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Argument validation errors come from cobra unwrapped.
	return exitUserError
}
