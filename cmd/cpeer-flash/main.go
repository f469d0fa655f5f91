package main

import (
	"fmt"
	"os"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"cloupeer.io/cpeer-flash/cmd/cpeer-flash/app"
)

func main() {
	ctx := genericapiserver.SetupSignalContext()
	if err := app.NewFlashCommand(ctx).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}
}
