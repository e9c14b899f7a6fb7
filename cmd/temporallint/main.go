package main

import (
	"errors"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/bfv/temporallint/cmd/temporallint/commands"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// If not set (e.g., via go install), it will be determined from build info.
var version = "dev"

func init() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
}

func main() {
	if err := commands.NewRootCmd(version).Execute(); err != nil {
		var exit *commands.ExitError
		if errors.As(err, &exit) {
			if exit.Err != nil {
				log.Error().Err(exit.Err).Msg("fatal error")
			}
			os.Exit(exit.Code)
		}
		log.Error().Err(err).Msg("fatal error")
		os.Exit(2)
	}
}
