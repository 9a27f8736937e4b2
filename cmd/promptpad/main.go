// Command promptpad fills prompt templates and sends them to a model.
package main

import (
	"os"

	"github.com/opencode-ai/promptpad/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
