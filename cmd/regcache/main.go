// cmd/regcache/main.go
package main

import (
	"os"

	"github.com/tamzrod/regcache/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
