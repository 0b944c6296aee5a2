// gotr discovers shell test cases and runs them as external processes,
// honoring the ordering constraints the cases declare.
package main

import (
	"fmt"
	"os"

	"github.com/me/gotr/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
