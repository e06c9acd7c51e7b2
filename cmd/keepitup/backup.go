// Export and import commands for the keepitup CLI.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newExportCmd(st *state) *cobra.Command {
	var noPrefs bool
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write tasks, logs, intervals and preferences to a JSON file",
		Long: `Write tasks with their probe parameters and logs, the suspension
intervals and the preferences to a JSON file. Use - to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			var prefs *types.Preferences
			if !noPrefs {
				p := st.prefs
				prefs = &p
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				if args[0] == "-" {
					return b.Export(st.out, prefs)
				}
				if err := b.ExportFile(args[0], prefs); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				st.printf("Exported to %s\n", args[0])
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&noPrefs, "no-preferences", false, "leave the preferences out of the export")
	return cmd
}

func newImportCmd(st *state) *cobra.Command {
	var (
		purge      bool
		applyPrefs bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Read a file written by export",
		Long: `Read a file written by export. Imported tasks get new ids and are
stopped. Without --purge the tasks are appended to the existing ones and the
import fails when an interval overlaps a stored one.`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return st.withBackend(func(b *sqlite.Backend) error {
				var (
					summary *sqlite.ImportSummary
					err     error
				)
				if args[0] == "-" {
					summary, err = b.Import(os.Stdin, purge)
				} else {
					summary, err = b.ImportFile(args[0], purge)
				}
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}

				prefsWritten := false
				if applyPrefs && summary.Preferences != nil {
					if err := st.writePreferences(*summary.Preferences); err != nil {
						return err
					}
					prefsWritten = true
				}

				if st.flagJSON {
					return st.printJSON(summary)
				}
				st.printf("Imported %d tasks, %d log entries, %d intervals\n", summary.Tasks, summary.Logs, summary.Intervals)
				if prefsWritten {
					st.printf("Preferences written to %s\n", filepath.Join(st.configDir, configFileExt))
				}
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "delete all tasks and intervals before importing")
	cmd.Flags().BoolVar(&applyPrefs, "preferences", false, "replace config.yaml with the imported preferences")
	return cmd
}

// writePreferences replaces config.yaml, keeping its data_dir.
func (st *state) writePreferences(prefs types.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	doc := configDocument{Preferences: prefs}
	if st.v != nil {
		doc.DataDir = st.v.GetString(cfgKeyDataDir)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader + "\n")
	if err := encodeYAML(&buf, doc); err != nil {
		return err
	}

	path := filepath.Join(st.configDir, configFileExt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	st.prefs = prefs
	return nil
}
