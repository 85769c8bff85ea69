// Command bolt-sandbox strikes lightning in a terminal or a window for tuning presets
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the kong command tree
type CLI struct {
	Globals

	Term       TermCmd       `cmd:"" default:"withargs" help:"Run in the terminal."`
	Window     WindowCmd     `cmd:"" help:"Run in a window."`
	DumpConfig DumpConfigCmd `cmd:"" name:"dump-config" help:"Print the default configuration as TOML."`
}

// Globals are flags shared by every subcommand
type Globals struct {
	Config      string  `help:"TOML configuration layered over the defaults." type:"existingfile" short:"c"`
	LogFile     string  `help:"Write logs to this file." name:"log-file" type:"path"`
	LogLevel    string  `help:"Log level." default:"info" enum:"debug,info,warn,error"`
	MetricsAddr string  `help:"Serve Prometheus metrics on this address, e.g. :9090." name:"metrics-addr"`
	Seed        int64   `help:"Random seed, 0 uses the clock."`
	Interval    float64 `help:"Seconds between automatic strikes, 0 disables." default:"1.5"`
	Sound       bool    `help:"Play thunder through a system audio player."`
	Inline      bool    `help:"Generate on the owner loop instead of the background worker."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bolt-sandbox"),
		kong.Description("Interactive lightning sandbox."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "bolt-sandbox: %v\n", err)
		os.Exit(1)
	}
}

// DumpConfigCmd prints the default configuration
type DumpConfigCmd struct{}

// Run writes the defaults, or the loaded file merged over them when --config is set
func (c *DumpConfigCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	return cfg.Encode(os.Stdout)
}
