// Command hybridstt serves the hybrid speech-to-text API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/hybridstt/app"
	"github.com/kbukum/hybridstt/version"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml (default: ./cmd/hybridstt/config.yml or ./config.yml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return
	}
	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "hybridstt: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := app.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	return a.Run(context.Background())
}
