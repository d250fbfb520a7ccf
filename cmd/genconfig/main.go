// Command genconfig writes a sample config.json with documented defaults.
package main

import (
	"flag"
	"fmt"
	"os"

	"coinpilot/config"
)

func main() {
	out := flag.String("out", "config.json", "output path")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	if !*force {
		if _, err := os.Stat(*out); err == nil {
			fmt.Fprintf(os.Stderr, "%s already exists, use -force to overwrite\n", *out)
			os.Exit(1)
		}
	}

	if err := config.GenerateSampleConfig(*out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote sample configuration to %s\n", *out)
}
