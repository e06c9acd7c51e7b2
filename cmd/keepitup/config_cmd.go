// Config command for the keepitup CLI.
package main

import (
	"bytes"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newConfigCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the preferences in effect, including environment overrides",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			dataDir, err := st.resolveDataDir()
			if err != nil {
				return err
			}
			doc := configDocument{DataDir: dataDir, Preferences: st.prefs}
			if st.flagJSON {
				return st.printJSON(map[string]any{"data_dir": dataDir, "preferences": st.prefs})
			}
			var buf bytes.Buffer
			if err := encodeYAML(&buf, doc); err != nil {
				return err
			}
			_, err = st.out.Write(buf.Bytes())
			return err
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the path of config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(st.configDir, configFileExt)
			if st.flagJSON {
				return st.printJSON(map[string]string{"path": path})
			}
			st.printf("%s\n", path)
			return nil
		},
	})
	return cmd
}
