package server

import (
	"context"
	"fmt"

	"github.com/openvfx/gopublish/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/openvfx/gopublish/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the GoPublish Agent",
		Long:  `Start the GoPublish Agent with its hot folder watcher`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			agent := agent.NewAgent(cfg)
			if err := agent.Serve(context.Background()); err != nil {
				print(err)
				return err
			}

			return nil
		},
	}

	return cmd
}
