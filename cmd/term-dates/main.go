// Command term-dates scrapes, caches and serves UNSW term dates.
package main

import (
	_ "time/tzdata"

	"github.com/pfrederiksen/term-dates/internal/cli"
)

func main() {
	cli.Execute()
}
