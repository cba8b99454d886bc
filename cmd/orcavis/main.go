// Command orcavis provides a GUI visualization for a running crowd
// simulation: agents, obstacle edges, and (toggled with D) the ORCA
// half-planes each agent solved against last tick.
package main

import (
	"flag"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"

	"github.com/orcacrowd/orca-sim/internal/visorca"
)

func main() {
	scenePath := flag.String("scene", "", "scenario JSON file (see internal/scenario); empty uses a built-in demo circle")
	flag.Parse()

	go func() {
		window := new(app.Window)
		window.Option(
			app.Title("orcavis"),
			app.Size(unit.Dp(1200), unit.Dp(900)),
		)

		application, err := visorca.NewApp(*scenePath)
		if err != nil {
			log.Fatal(err)
		}
		if err := application.Run(window); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}
