package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Segment cache maintenance",
	}
	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

type cacheFile struct {
	name    string
	size    int64
	modTime string
}

func scanCacheDir(dir string) ([]cacheFile, int64, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp4"))
	if err != nil {
		return nil, 0, fmt.Errorf("scan cache directory: %w", err)
	}

	var files []cacheFile
	var total int64
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		files = append(files, cacheFile{
			name:    filepath.Base(match),
			size:    info.Size(),
			modTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		total += info.Size()
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime < files[j].modTime })
	return files, total, nil
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cached segment files and disk usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			files, total, err := scanCacheDir(cfg.Paths.CacheDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "Cache %s is empty\n", cfg.Paths.CacheDir)
				return nil
			}

			rows := make([][]string, 0, len(files))
			for _, file := range files {
				rows = append(rows, []string{file.name, formatBytes(file.size), file.modTime})
			}
			headers := []string{"Segment", "Size", "Rendered"}
			aligns := []columnAlignment{alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
			fmt.Fprintf(out, "%d file(s), %s of %s used\n",
				len(files), formatBytes(total), formatBytes(cfg.MaxCacheBytes()))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached segment files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			matches, err := filepath.Glob(filepath.Join(cfg.Paths.CacheDir, "*.mp4"))
			if err != nil {
				return fmt.Errorf("scan cache directory: %w", err)
			}
			removed := 0
			for _, match := range matches {
				if err := os.Remove(match); err != nil {
					return fmt.Errorf("remove %s: %w", match, err)
				}
				removed++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached segment(s) from %s\n", removed, cfg.Paths.CacheDir)
			return nil
		},
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
