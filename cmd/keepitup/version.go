// Version command for the keepitup CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/pkg/keepitup"
)

func newVersionCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the keepitup version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if st.flagJSON {
				return st.printJSON(map[string]string{"version": keepitup.Version})
			}
			fmt.Fprintln(st.out, "keepitup", keepitup.Version)
			return nil
		},
	}
}
