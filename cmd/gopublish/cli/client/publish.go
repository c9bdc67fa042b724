package client

import (
	"fmt"

	"github.com/spf13/cobra"

	config "github.com/openvfx/gopublish/internal/config/server"
	"github.com/openvfx/gopublish/pkg/anatomy"
	"github.com/openvfx/gopublish/pkg/db/store"
	"github.com/openvfx/gopublish/pkg/log"
	"github.com/openvfx/gopublish/pkg/publish"
	"github.com/openvfx/gopublish/pkg/transfer"
)

func NewPublishCommand() *cobra.Command {
	var author string
	var comment string

	cmd := &cobra.Command{
		Use:   "publish <manifest>",
		Short: "Publish a manifest",
		Long:  "Validate and integrate every instance described in the given publish manifest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := log.NewLoggerService("gopublish", cfg.Log)

			pctx, err := publish.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if author != "" {
				pctx.User = author
			}
			if comment != "" {
				pctx.Comment = comment
			}

			integrator, entityStore, err := buildIntegrator(cmd, cfg, logger)
			if err != nil {
				return err
			}
			defer entityStore.Close()

			if err := publish.EnsureFolders(cmd.Context(), entityStore, pctx); err != nil {
				return err
			}

			results, err := integrator.IntegrateContext(cmd.Context(), pctx)
			if err != nil {
				return err
			}

			for _, result := range results {
				fmt.Printf("Published %s as version %d (%d files)\n",
					result.Instance, result.Version, len(result.Transferred))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Override the manifest author")
	cmd.Flags().StringVar(&comment, "comment", "", "Override the publish comment")

	return cmd
}

func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a manifest",
		Long:  "Run trait validation on every instance of the manifest without integrating anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pctx, err := publish.LoadManifest(args[0])
			if err != nil {
				return err
			}

			failed := 0
			for _, instance := range pctx.Instances {
				if err := instance.Validate(); err != nil {
					failed++
					fmt.Printf("FAIL %s\n%v\n", instance.Name, err)
					continue
				}
				fmt.Printf("OK   %s\n", instance.Name)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d instances failed validation",
					failed, len(pctx.Instances))
			}
			return nil
		},
	}

	return cmd
}

func buildIntegrator(
	cmd *cobra.Command, cfg *config.BaseServerConfig, logger log.LoggerService,
) (*publish.Integrator, store.EntityStore, error) {
	entityStore, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: cfg.Metadata.SQLite.Path,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := entityStore.Connect(cmd.Context()); err != nil {
		return nil, nil, err
	}
	if err := entityStore.Migrate(cmd.Context()); err != nil {
		entityStore.Close()
		return nil, nil, err
	}

	projectAnatomy, err := anatomy.New(
		cfg.Anatomy.Project, cfg.Anatomy.Roots, cfg.Anatomy.Templates)
	if err != nil {
		entityStore.Close()
		return nil, nil, err
	}

	integrator := publish.NewIntegrator(logger, entityStore, projectAnatomy,
		publish.Config{
			TransferMode:      transfer.Mode(cfg.Publish.TransferMode),
			TransferWorkers:   cfg.Publish.TransferWorkers,
			AllowReplacements: cfg.Publish.AllowReplacements,
			Template:          cfg.Publish.DefaultTemplate,
		})
	return integrator, entityStore, nil
}
