package operations

import (
	"os"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func mergeBeforeFuncs(ops ...cli.BeforeFunc) cli.BeforeFunc {
	return func(c *cli.Context) error {
		catcher := grip.NewBasicCatcher()

		for _, op := range ops {
			catcher.Add(op(c))
		}

		return catcher.Resolve()
	}
}

func setupLogging() cli.BeforeFunc {
	return func(c *cli.Context) error {
		grip.SetName("compose.service")
		return nil
	}
}

func requireFileExists(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		path := c.String(name)
		if path == "" {
			return errors.Errorf("flag '--%s' must be specified", name)
		}

		stat, err := os.Stat(path)
		if os.IsNotExist(err) {
			return errors.Errorf("file '%s' does not exist", path)
		} else if err != nil {
			return errors.Wrapf(err, "checking file '%s'", path)
		} else if stat.IsDir() {
			return errors.Errorf("'%s' is a directory, not a configuration file", path)
		}

		return nil
	}
}
