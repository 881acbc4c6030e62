package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
ride-pool-hub — pooling, dispatch and settlement engine

Usage:
  hub [flags]

Flags:
  -config-path string   path to the YAML config file (default "config.yaml")
  -help                 show this message

Configuration is read from the YAML file, then the environment; every
value has a default, see config/config.go for the full list.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
