package store

import (
	"context"

	"github.com/openvfx/gopublish/pkg/db/models"
)

// EntityStore defines the interface for entity database operations
type EntityStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Transaction runs fn against a store bound to one database
	// transaction. The writes commit when fn returns nil and roll
	// back otherwise.
	Transaction(ctx context.Context, fn func(tx EntityStore) error) error

	// Folder operations
	CreateFolder(ctx context.Context, folder *models.Folder) error
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	GetFolderByPath(ctx context.Context, path string) (*models.Folder, error)
	ListFolders(ctx context.Context) ([]models.Folder, error)
	UpdateFolder(ctx context.Context, folder *models.Folder) error
	DeleteFolder(ctx context.Context, id string) error

	// Product operations
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductByName(ctx context.Context, folderID, name string) (*models.Product, error)
	ListProducts(ctx context.Context, folderID string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error

	// Version operations
	CreateVersion(ctx context.Context, version *models.Version) error
	GetVersion(ctx context.Context, id string) (*models.Version, error)
	GetVersionByNumber(ctx context.Context, productID string, number int) (*models.Version, error)
	GetLatestVersion(ctx context.Context, productID string) (*models.Version, error)
	ListVersions(ctx context.Context, productID string) ([]models.Version, error)
	UpdateVersion(ctx context.Context, version *models.Version) error
	DeleteVersion(ctx context.Context, id string) error

	// Representation operations
	CreateRepresentation(ctx context.Context, representation *models.Representation) error
	GetRepresentation(ctx context.Context, id string) (*models.Representation, error)
	GetRepresentationByName(ctx context.Context, versionID, name string) (*models.Representation, error)
	ListRepresentations(ctx context.Context, versionID string) ([]models.Representation, error)
	UpdateRepresentation(ctx context.Context, representation *models.Representation) error
	DeleteRepresentation(ctx context.Context, id string) error
}
