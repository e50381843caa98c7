// # cmd/coalesce/main.go
package main

import (
	"os"

	"coalesce/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
