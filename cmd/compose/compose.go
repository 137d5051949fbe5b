package main

import (
	"os"

	"github.com/compose-ci/compose"
	"github.com/compose-ci/compose/operations"
	"github.com/mongodb/grip"
	"github.com/urfave/cli"
)

func main() {
	grip.EmergencyFatal(buildApp().Run(os.Args))
}

func buildApp() *cli.App {
	app := cli.NewApp()
	app.Name = "compose"
	app.Usage = "multi-repository composed build orchestration"
	app.Version = compose.BuildRevision

	app.Commands = []cli.Command{
		operations.Service(),
	}

	return app
}
