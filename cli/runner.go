package cli

import (
	"context"
	"github.com/jessevdk/go-flags"
)

func Run(args []string) error {

	options := &Options{}
	_, err := flags.ParseArgs(options, args)
	if err != nil {
		return err
	}
	ctx := context.Background()
	service, err := New(ctx, options)
	if err != nil {
		return err
	}
	defer service.Close()
	return service.Execute(ctx)
}
