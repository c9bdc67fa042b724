package main

import (
	"fmt"
	"os"

	"github.com/openvfx/gopublish/cmd/gopublish/cli"
	"github.com/openvfx/gopublish/cmd/gopublish/cli/client"
	"github.com/openvfx/gopublish/cmd/gopublish/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(client.NewPublishCommand())
	root.AddCommand(client.NewValidateCommand())

	root.AddCommand(server.NewAgentCommand())
	root.AddCommand(server.NewConfigCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
