package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/narrate/internal/cache"
)

var pruneOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the audio cache",
	Args:  cobra.NoArgs,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := loadSettings()
		if err != nil {
			return err
		}
		b, err := cache.Open(ctx, s.Cache, nil)
		if err != nil {
			return err
		}
		defer b.Close() //nolint:errcheck

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "driver: %s\n", driverLabel(s.Cache.Driver))

		// The L2 tier holds what survives between runs.
		if m, ok := b.(*cache.Manager); ok {
			b = m.Backend()
		}
		switch b := b.(type) {
		case cache.StatsReporter:
			printStats(w, b.Stats())
		case *cache.SQLiteBackend:
			n, err := b.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "entries: %d\n", n)
		default:
			fmt.Fprintln(w, "no statistics for this driver")
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached audio and the saved API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := loadSettings()
		if err != nil {
			return err
		}
		b, err := cache.Open(ctx, s.Cache, nil)
		if err != nil {
			return err
		}
		defer b.Close() //nolint:errcheck

		if err := b.Clear(ctx); err != nil {
			return fmt.Errorf("unable to clear cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove disk cache entries not used recently",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		b, err := cache.Open(cmd.Context(), s.Cache, nil)
		if err != nil {
			return err
		}
		defer b.Close() //nolint:errcheck

		if m, ok := b.(*cache.Manager); ok {
			b = m.Backend()
		}
		disk, ok := b.(*cache.DiskBackend)
		if !ok {
			return fmt.Errorf("prune is only supported by the %s driver", cache.DriverDisk)
		}

		n := disk.RemoveOlderThan(time.Now().Add(-pruneOlderThan))
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
		return nil
	},
}

func printStats(w io.Writer, st cache.CacheStats) {
	fmt.Fprintf(w, "entries: %d\n", st.ItemCount)
	if st.Capacity > 0 {
		fmt.Fprintf(w, "size: %s of %s\n", humanize.Bytes(uint64(st.Size)), humanize.Bytes(uint64(st.Capacity))) //nolint:gosec
	} else {
		fmt.Fprintf(w, "size: %s\n", humanize.Bytes(uint64(st.Size))) //nolint:gosec
	}
	if !st.LastEvict.IsZero() {
		fmt.Fprintf(w, "last eviction: %s\n", humanize.Time(st.LastEvict))
	}
}

func driverLabel(driver string) string {
	if driver == "" {
		return cache.DriverDisk
	}
	return driver
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "remove entries last used before this long ago")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
}
