// Package config loads the settings of the voter CLI.
//
// Sources, later ones winning: built-in defaults, the JSON file named by
// -c/-config, then the flags below.
//
//	-a string  host:port of the ballot server
//	-o string  directory archive downloads are written to
//	-t int     per-request timeout in seconds
package config

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/flagx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/timex"
)

type Config struct {
	ServerEndpointAddr string
	ArchiveDir         string
	RequestTimeout     time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.ArchiveDir = "archives"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig builds a Config from defaults, the optional JSON file and args.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	ArchiveDir         string         `json:"archive_dir"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(file, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.ArchiveDir != "" {
		cfg.ArchiveDir = jc.ArchiveDir
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-o", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the ballot server")
	fs.StringVar(&cfg.ArchiveDir, "o", cfg.ArchiveDir, "directory for downloaded archives")
	timeout := fs.Int("t", 0, "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *timeout > 0 {
		cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	}
}
