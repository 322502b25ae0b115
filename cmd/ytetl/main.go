// Command ytetl validates the YouTuber catalogue, seeds it into a database
// and serves it over HTTP.
package main

import (
	"os"

	"ytetl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
