// Command f1schedule prints Formula 1 calendars, results and standings and
// serves them over HTTP and to tool clients.
package main

import (
	"github.com/hydavinci/formula-1-schedule/cmd"
)

func main() {
	cmd.Execute()
}
