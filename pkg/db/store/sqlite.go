package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/openvfx/gopublish/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements EntityStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed entity store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Folder{},
		&models.Product{},
		&models.Version{},
		&models.Representation{},
	)
}

// Transaction runs fn against a store bound to a single database
// transaction
func (s *SQLiteStore) Transaction(ctx context.Context, fn func(tx EntityStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteStore{db: tx, path: s.path})
	})
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Folder operations

func (s *SQLiteStore) CreateFolder(ctx context.Context, folder *models.Folder) error {
	return s.db.WithContext(ctx).Create(folder).Error
}

func (s *SQLiteStore) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	var folder models.Folder
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *SQLiteStore) GetFolderByPath(ctx context.Context, path string) (*models.Folder, error) {
	var folder models.Folder
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *SQLiteStore) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	err := s.db.WithContext(ctx).Find(&folders).Error
	return folders, err
}

func (s *SQLiteStore) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	return s.db.WithContext(ctx).Save(folder).Error
}

func (s *SQLiteStore) DeleteFolder(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Folder{}, "id = ?", id).Error
}

// Product operations

func (s *SQLiteStore) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.db.WithContext(ctx).Create(product).Error
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *SQLiteStore) GetProductByName(ctx context.Context, folderID, name string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("folder_id = ? AND name = ?", folderID, name).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context, folderID string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).Where("folder_id = ?", folderID).Find(&products).Error
	return products, err
}

func (s *SQLiteStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	return s.db.WithContext(ctx).Save(product).Error
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// Version operations

func (s *SQLiteStore) CreateVersion(ctx context.Context, version *models.Version) error {
	return s.db.WithContext(ctx).Create(version).Error
}

func (s *SQLiteStore) GetVersion(ctx context.Context, id string) (*models.Version, error) {
	var version models.Version
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (s *SQLiteStore) GetVersionByNumber(ctx context.Context, productID string, number int) (*models.Version, error) {
	var version models.Version
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND version = ?", productID, number).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (s *SQLiteStore) GetLatestVersion(ctx context.Context, productID string) (*models.Version, error) {
	var version models.Version
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("version DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (s *SQLiteStore) ListVersions(ctx context.Context, productID string) ([]models.Version, error) {
	var versions []models.Version
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("version ASC").
		Find(&versions).Error
	return versions, err
}

func (s *SQLiteStore) UpdateVersion(ctx context.Context, version *models.Version) error {
	return s.db.WithContext(ctx).Save(version).Error
}

func (s *SQLiteStore) DeleteVersion(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Version{}, "id = ?", id).Error
}

// Representation operations

func (s *SQLiteStore) CreateRepresentation(ctx context.Context, representation *models.Representation) error {
	return s.db.WithContext(ctx).Create(representation).Error
}

func (s *SQLiteStore) GetRepresentation(ctx context.Context, id string) (*models.Representation, error) {
	var representation models.Representation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&representation).Error
	if err != nil {
		return nil, err
	}
	return &representation, nil
}

func (s *SQLiteStore) GetRepresentationByName(ctx context.Context, versionID, name string) (*models.Representation, error) {
	var representation models.Representation
	err := s.db.WithContext(ctx).
		Where("version_id = ? AND name = ?", versionID, name).
		First(&representation).Error
	if err != nil {
		return nil, err
	}
	return &representation, nil
}

func (s *SQLiteStore) ListRepresentations(ctx context.Context, versionID string) ([]models.Representation, error) {
	var representations []models.Representation
	err := s.db.WithContext(ctx).
		Where("version_id = ?", versionID).
		Find(&representations).Error
	return representations, err
}

func (s *SQLiteStore) UpdateRepresentation(ctx context.Context, representation *models.Representation) error {
	return s.db.WithContext(ctx).Save(representation).Error
}

func (s *SQLiteStore) DeleteRepresentation(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Representation{}, "id = ?", id).Error
}
