// Command txstore validates entity schemas, queries the sample catalog and
// runs conformance scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/txstore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
