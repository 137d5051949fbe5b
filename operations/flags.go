package operations

import "github.com/urfave/cli"

const (
	confFlagName = "conf"

	defaultConfigPath = "/etc/compose/config.yml"
)

func serviceConfigFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  confFlagName + ", c, config",
		Usage: "path to the service configuration file",
		Value: defaultConfigPath,
	})
}
