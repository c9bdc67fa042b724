package publish

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/openvfx/gopublish/pkg/db/models"
	"github.com/openvfx/gopublish/pkg/db/store"
	"gorm.io/gorm"
)

// EnsureFolders creates the folder records the instances of a context
// publish into, when they do not exist yet. This is a bootstrap step
// run before integration; the integrator itself only looks folders up.
func EnsureFolders(
	ctx context.Context, entityStore store.EntityStore, pctx *Context,
) error {
	seen := make(map[string]struct{})
	for _, instance := range pctx.Instances {
		if _, ok := seen[instance.FolderPath]; ok {
			continue
		}
		seen[instance.FolderPath] = struct{}{}

		_, err := entityStore.GetFolderByPath(ctx, instance.FolderPath)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to query folder: %w", err)
		}

		folder := &models.Folder{
			ID:   uuid.NewString(),
			Name: path.Base(instance.FolderPath),
			Path: instance.FolderPath,
		}
		if err := entityStore.CreateFolder(ctx, folder); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folder.Path, err)
		}
	}
	return nil
}
