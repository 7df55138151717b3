// Command noemad runs the learning orchestration engine as an HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/corvid-labs/noema/internal/noema/app"
)

func main() {
	cmd := app.NewNoemadCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
