package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

const VersionFile = "version.latest"

// main is the entry point of the application.
func main() {
	app := &cli.App{
		Name:      "cypherx_sim",
		Usage:     "simulated meme-coin trading engine",
		UsageText: "cypherx_sim [global options] command [command options] [arguments...]",
		Version:   readVersion(),
		Commands: []*cli.Command{
			runCommand(),
			tradeCommand(),
			statusCommand(),
			marketCommand(),
			exportCommand(),
			resetCommand(),
			shellCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "\033[31m"+err.Error()+"\033[0m")
		os.Exit(1)
	}
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
