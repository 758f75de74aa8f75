// SPDX-License-Identifier: MIT
package perfstats

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/cliio"
	"github.com/skaphos/perfstats/internal/manifest"
	"github.com/skaphos/perfstats/internal/sortutil"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the artifacts listed in the output directory manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		yes, _ := cmd.Flags().GetBool("yes")

		rt, err := loadRuntimeConfig(cmd)
		if err != nil {
			return err
		}
		dir := rt.outputDir(cmd)
		manifestPath := manifest.PathIn(dir)
		m, err := manifest.Load(manifestPath)
		if errors.Is(err, os.ErrNotExist) {
			infof(cmd, "no manifest in %s; nothing to clean", dir)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		if err := m.ValidatePaths(dir); err != nil {
			return err
		}
		if pruned := m.Prune(); pruned > 0 {
			debugf(cmd, "%d listed artifact(s) already gone", pruned)
		}

		out := cmd.OutOrStdout()
		paths := m.Paths(dir)
		if dryRun {
			for _, p := range paths {
				logOutputWriteFailure(cmd, "clean dry-run", writeLine(out, "would remove %s", p))
			}
			logOutputWriteFailure(cmd, "clean dry-run", writeLine(out, "would remove %s", manifestPath))
			return nil
		}
		if !yes {
			prompt := fmt.Sprintf("Remove %d artifact(s) from %s? [y/N]: ", len(paths), dir)
			confirmed, err := cliio.PromptYesNo(cmd.ErrOrStderr(), cmd.InOrStdin(), prompt)
			if err != nil {
				return err
			}
			if !confirmed {
				infof(cmd, "clean cancelled")
				return nil
			}
		}

		var kept []manifest.Entry
		for i, p := range paths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				warnf(cmd, "remove %s: %v", p, err)
				kept = append(kept, m.Entries[i])
				continue
			}
			logOutputWriteFailure(cmd, "clean", writeLine(out, "removed %s", p))
		}
		if len(kept) > 0 {
			m.Entries = kept
			sortutil.SortManifestEntries(m.Entries)
			return manifest.Save(m, manifestPath)
		}
		if err := os.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		infof(cmd, "removed %d artifact(s) and the manifest", len(paths))
		return nil
	},
}

func writeLine(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format+"\n", args...)
	return err
}

func init() {
	addOutputDirFlag(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "list what would be removed without removing anything")
	cleanCmd.Flags().BoolP("yes", "y", false, "do not prompt for confirmation")

	rootCmd.AddCommand(cleanCmd)
}
