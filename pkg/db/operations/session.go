package operations

import (
	"context"
	"fmt"

	"github.com/openvfx/gopublish/pkg/db/models"
	"github.com/openvfx/gopublish/pkg/db/store"
)

// Session queues entity operations so integration can stage all
// database writes and commit them only after file transfers succeed.
type Session struct {
	store store.EntityStore
	queue []Operation
}

// Operation is a single queued entity write.
type Operation struct {
	Description string
	Apply       func(ctx context.Context, s store.EntityStore) error
}

// NewSession creates an empty operations session bound to a store.
func NewSession(entityStore store.EntityStore) *Session {
	return &Session{store: entityStore}
}

// Len returns the number of queued operations.
func (s *Session) Len() int {
	return len(s.queue)
}

// Pending returns the descriptions of queued operations in order.
func (s *Session) Pending() []string {
	pending := make([]string, 0, len(s.queue))
	for _, op := range s.queue {
		pending = append(pending, op.Description)
	}
	return pending
}

// Clear drops all queued operations without applying them.
func (s *Session) Clear() {
	s.queue = nil
}

// Commit applies all queued operations in order inside one database
// transaction, so a failure leaves no partial prefix behind. The queue
// is cleared on success.
func (s *Session) Commit(ctx context.Context) error {
	if len(s.queue) == 0 {
		return nil
	}
	err := s.store.Transaction(ctx, func(tx store.EntityStore) error {
		for _, op := range s.queue {
			if err := op.Apply(ctx, tx); err != nil {
				return fmt.Errorf("%s: %w", op.Description, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.queue = nil
	return nil
}

func (s *Session) CreateFolder(folder *models.Folder) {
	s.queue = append(s.queue, Operation{
		Description: fmt.Sprintf("create folder %s", folder.Path),
		Apply: func(ctx context.Context, es store.EntityStore) error {
			return es.CreateFolder(ctx, folder)
		},
	})
}

func (s *Session) CreateProduct(product *models.Product) {
	s.queue = append(s.queue, Operation{
		Description: fmt.Sprintf("create product %s", product.Name),
		Apply: func(ctx context.Context, es store.EntityStore) error {
			return es.CreateProduct(ctx, product)
		},
	})
}

func (s *Session) UpdateProduct(product *models.Product) {
	s.queue = append(s.queue, Operation{
		Description: fmt.Sprintf("update product %s", product.Name),
		Apply: func(ctx context.Context, es store.EntityStore) error {
			return es.UpdateProduct(ctx, product)
		},
	})
}

func (s *Session) CreateVersion(version *models.Version) {
	s.queue = append(s.queue, Operation{
		Description: fmt.Sprintf("create version %d", version.Version),
		Apply: func(ctx context.Context, es store.EntityStore) error {
			return es.CreateVersion(ctx, version)
		},
	})
}

func (s *Session) UpdateVersion(version *models.Version) {
	s.queue = append(s.queue, Operation{
		Description: fmt.Sprintf("update version %d", version.Version),
		Apply: func(ctx context.Context, es store.EntityStore) error {
			return es.UpdateVersion(ctx, version)
		},
	})
}

func (s *Session) CreateRepresentation(representation *models.Representation) {
	s.queue = append(s.queue, Operation{
		Description: fmt.Sprintf("create representation %s", representation.Name),
		Apply: func(ctx context.Context, es store.EntityStore) error {
			return es.CreateRepresentation(ctx, representation)
		},
	})
}
