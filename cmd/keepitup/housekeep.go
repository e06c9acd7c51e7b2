// Housekeeping and file listing commands for the keepitup CLI.
package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/housekeeping"
	"github.com/mesh-intelligence/keepitup/internal/paths"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func (st *state) logDir() (string, error) {
	dataDir, err := st.resolveDataDir()
	if err != nil {
		return "", err
	}
	return paths.LogDir(dataDir, st.prefs.FileLog.Dir)
}

func newHousekeepCmd(st *state) *cobra.Command {
	var rotate bool
	cmd := &cobra.Command{
		Use:   "housekeep",
		Short: "Zip old log files and delete old archives now",
		Long: `Keep the newest file_log.max_files rotated log files, zip older ones
and delete archives beyond file_log.archive_files. With --rotate the current
log file is rotated first.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			dir, err := st.logDir()
			if err != nil {
				return err
			}
			fl := st.prefs.FileLog
			if rotate {
				rf, err := housekeeping.NewRotatingFile(dir, fl.MaxSize)
				if err != nil {
					return err
				}
				rotateErr := rf.Rotate()
				if err := rf.Close(); err != nil && rotateErr == nil {
					rotateErr = err
				}
				if rotateErr != nil {
					return fmt.Errorf("rotate: %w", rotateErr)
				}
			}

			report, err := housekeeping.NewHousekeeper(dir, fl.MaxFiles, fl.ArchiveFiles).Run()
			if err != nil {
				return err
			}
			if st.flagJSON {
				return st.printJSON(report)
			}
			for _, name := range report.Archived {
				st.printf("archived %s\n", name)
			}
			for _, name := range report.Deleted {
				st.printf("deleted  %s\n", name)
			}
			st.printf("%d archived, %d deleted in %s\n", len(report.Archived), len(report.Deleted), dir)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&rotate, "rotate", false, "rotate the current log file first")
	return cmd
}

func newFilesCmd(st *state) *cobra.Command {
	var downloads bool
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List log files, or downloaded files with --downloads",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			var (
				dir string
				err error
			)
			if downloads {
				dir, err = st.downloadDir(st.prefs)
			} else {
				dir, err = st.logDir()
			}
			if err != nil {
				return err
			}
			files, err := housekeeping.ListFiles(dir)
			if err != nil {
				return err
			}
			if st.flagJSON {
				return st.printJSON(files)
			}
			if len(files) == 0 {
				st.printf("No files in %s\n", dir)
				return nil
			}
			writeFiles(st, files)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&downloads, "downloads", false, "list the download directory")
	return cmd
}

func writeFiles(st *state, files []types.FileEntry) {
	tw := st.table()
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, f := range files {
		name := f.Name
		if f.Directory {
			name += "/"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, humanize.Bytes(uint64(f.Size)), humanize.Time(f.ModTime))
	}
	tw.Flush()
}
