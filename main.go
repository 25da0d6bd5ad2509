package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
)

type cliOptions struct {
	configPath    string
	transport     string
	addr          string
	toolOverrides string
	dumpCatalog   string
	version       bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}

func parseFlags(args []string) (*cliOptions, bool, error) {
	opts := &cliOptions{}
	flagSet := pflag.NewFlagSet(defaultServerName, pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: <config home>/config.json when present)")
	flagSet.StringVar(&opts.transport, "transport", "http", "transport to serve: http or stdio")
	flagSet.StringVar(&opts.addr, "addr", "", "listen address for the http transport (overrides config and WPMCP_ADDR)")
	flagSet.StringVar(&opts.toolOverrides, "tool-overrides", "", "path to a YAML or JSONC tool override file")
	flagSet.StringVar(&opts.dumpCatalog, "dump-catalog", "", "write the tool catalog snapshot to this path and exit")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	switch opts.transport {
	case "http", "stdio":
	default:
		return nil, false, fmt.Errorf("unknown transport %q: want http or stdio", opts.transport)
	}
	return opts, false, nil
}

func run(args []string) error {
	opts, help, err := parseFlags(args)
	if err != nil || help {
		return err
	}
	if opts.version {
		fmt.Printf("%s %s\n", defaultServerName, defaultServerVersion)
		return nil
	}

	config, err := load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.addr != "" {
		config.Server.Addr = opts.addr
	}
	overridesPath := config.Server.ToolOverridesPath
	if opts.toolOverrides != "" {
		overridesPath = opts.toolOverrides
	}
	overrides, err := loadToolOverridesFromPath(overridesPath)
	if err != nil {
		return fmt.Errorf("load tool overrides: %w", err)
	}

	client, err := NewClient(config.WordPress.URL, config.WordPress.Username, config.WordPress.Password, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	dispatcher := NewDispatcher(client, defaultOperations())
	catalog := newToolCatalog(dispatcher, overrides)

	if opts.dumpCatalog != "" {
		now := time.Now()
		written, err := writeCatalogSnapshot(opts.dumpCatalog, buildCatalogSnapshot(config.Server, catalog, now), config.Server.SnapshotHistory, now)
		if err != nil {
			return fmt.Errorf("write catalog snapshot: %w", err)
		}
		log.Printf("<catalog> snapshot written to %s", written)
		return nil
	}

	if opts.transport == "stdio" {
		return serveStdio(config.Server, catalog)
	}
	return startHTTPServer(context.Background(), config, newHTTPHandler(config, catalog))
}
