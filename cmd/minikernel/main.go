// Command minikernel boots the simulated machine with the built-in programs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel"
	"github.com/viant/minikernel/hal/sim"
	"github.com/viant/minikernel/program"
)

func main() {
	configURL := flag.String("config", "", "configuration URL (file path, mem://, s3:// ...)")
	initProgram := flag.String("init", "", "program the first process runs, overrides the configuration")
	list := flag.Bool("list", false, "list the built-in programs and exit")
	flag.Parse()

	if *list {
		fmt.Println(strings.Join(program.Builtin().Names(), "\n"))
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, *configURL, *initProgram); err != nil {
		logrus.WithError(err).Error("minikernel failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, configURL, initProgram string) error {
	config := minikernel.DefaultConfig()
	if configURL != "" {
		var err error
		if config, err = minikernel.LoadConfig(ctx, configURL); err != nil {
			return err
		}
	}
	if initProgram != "" {
		config.Init = initProgram
	}
	srv, err := minikernel.New(minikernel.WithConfig(config))
	if err != nil {
		return err
	}
	err = srv.Run(ctx)
	var panicErr *sim.PanicError
	if errors.As(err, &panicErr) {
		return fmt.Errorf("machine halted: %w", err)
	}
	return err
}
