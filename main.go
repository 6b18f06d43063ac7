package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/nixxel-company-limited/escp-print/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		// Bytes already delivered to the printer are not retracted
		log.Error().Err(err).Msg(cli.Describe(err))
		os.Exit(1)
	}
}
