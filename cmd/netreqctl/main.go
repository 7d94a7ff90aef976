// Command netreqctl is a demo CLI driving the netreq library: single
// requests, single-file downloads, and multi-segment downloads from the
// command line, plus a YAML batch mode for many downloads at once.
package main

import (
	"fmt"
	"os"

	"github.com/tanq16/netreq/cmd/netreqctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
