// Command dreamsim compiles and plays procedural dream sessions, keeps the
// dream journal and serves the HTTP API.
//
// Usage:
//
//	dreamsim run [--type=vivid] [--theme=forest] [--speed=10]
//	dreamsim simulate --seed=42 [--json]
//	dreamsim batch --count=20 --parallel=4
//	dreamsim journal [--limit=10]
//	dreamsim patterns
//	dreamsim symbol <term>
//	dreamsim serve
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
