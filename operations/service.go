package operations

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/compose-ci/compose"
	"github.com/compose-ci/compose/service"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/recovery"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func Service() cli.Command {
	return cli.Command{
		Name:  "service",
		Usage: "run the composed build orchestration service",
		Subcommands: []cli.Command{
			startWebService(),
		},
	}
}

func startWebService() cli.Command {
	return cli.Command{
		Name:   "web",
		Usage:  "start the orchestration REST service",
		Flags:  serviceConfigFlags(),
		Before: mergeBeforeFuncs(setupLogging(), requireFileExists(confFlagName)),
		Action: func(c *cli.Context) error {
			confPath := c.String(confFlagName)

			ctx, cancel := context.WithCancel(context.Background())
			defer recovery.LogStackTraceAndExit("compose service")
			defer cancel()

			settings, err := compose.NewSettings(confPath)
			if err != nil {
				return errors.Wrap(err, "reading service configuration")
			}
			if err = settings.ValidateAndDefault(); err != nil {
				return errors.Wrap(err, "validating service configuration")
			}

			env, err := compose.NewEnvironment(ctx, settings)
			if err != nil {
				return errors.Wrap(err, "configuring application environment")
			}
			compose.SetEnvironment(env)
			defer func() {
				grip.Error(message.WrapError(env.Close(ctx), message.Fields{
					"message": "closing application environment",
				}))
			}()

			router, err := service.GetRouter(env)
			if err != nil {
				return errors.Wrap(err, "constructing service router")
			}

			srv := service.GetServer(settings.Service.HTTPListenAddr, router)

			go func() {
				defer recovery.LogStackTraceAndContinue("web service")
				grip.Alert(srv.ListenAndServe())
			}()
			go listenForSIGTERM(cancel)

			<-ctx.Done()
			grip.Notice("web service terminating")
			return nil
		},
	}
}

// listenForSIGTERM cancels the service context as soon as SIGTERM is
// received.
func listenForSIGTERM(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 5)
	signal.Notify(sigChan, syscall.SIGTERM)
	<-sigChan
	cancel()
}
