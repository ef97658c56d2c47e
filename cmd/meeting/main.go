package main

import (
	"os"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/cli"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
)

func main() {
	deps := &cli.Dependencies{ConfigPath: "config/config.yaml"}
	if err := cli.NewRootCmd(deps).Execute(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}
