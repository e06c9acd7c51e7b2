// Init command for the keepitup CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
)

func newInitCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and the database",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			// The config dir and config.yaml were created while loading.
			return st.withBackend(func(b *sqlite.Backend) error {
				dbPath, err := b.Path()
				if err != nil {
					return err
				}
				if st.flagJSON {
					return st.printJSON(map[string]string{"config_dir": st.configDir, "database": dbPath})
				}
				st.printf("KeepItUp initialized\n")
				st.printf("  config:   %s\n", st.configDir)
				st.printf("  database: %s\n", dbPath)
				return nil
			})
		}),
	}
}
