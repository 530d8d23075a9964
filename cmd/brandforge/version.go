package main

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"brandforge/internal/config"
)

var (
	versionOnce   sync.Once
	cachedVersion string
)

// appVersion returns the best-effort version for the brandforge
// binary: an explicit BRANDFORGE_VERSION, then Go build information,
// then a development fallback.
func appVersion() string {
	versionOnce.Do(func() {
		cachedVersion = detectVersion(config.DefaultEnvLookup)
	})
	return cachedVersion
}

func detectVersion(lookup config.EnvLookup) string {
	if v, ok := lookup("BRANDFORGE_VERSION"); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return fmt.Sprintf("dev-%s", setting.Value)
			}
		}
	}

	return "development"
}

// newVersionCommand creates the version subcommand
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("brandforge %s\n", appVersion())
		},
	}
}
