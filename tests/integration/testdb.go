// Package integration runs the storefront against real PostgreSQL databases
// started with testcontainers.
package integration

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "postgres"
	postgresPassword = "storefront"
)

var (
	// Shared container for all tests in a package
	sharedContainer   *tcpostgres.PostgresContainer
	sharedContainerMu sync.Mutex
	sharedConfig      *config.DatabaseConfig
)

// TestDB is a migrated storefront database
type TestDB struct {
	*persistence.Database
	Container *tcpostgres.PostgresContainer
	Config    *config.DatabaseConfig
	t         *testing.T
}

// NewTestDB starts a dedicated PostgreSQL container for one test.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	container, cfg := startPostgres(t, "storefront_test")
	tdb := &TestDB{Database: connect(t, cfg), Container: container, Config: cfg, t: t}
	tdb.migrate()

	t.Cleanup(tdb.Close)
	return tdb
}

// NewSharedTestDB connects to the package's shared container, starting and
// migrating it on first use. Tests sharing it should call CleanTables.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		container, cfg := startPostgres(t, "storefront_shared_test")
		db := connect(t, cfg)
		(&TestDB{Database: db, t: t}).migrate()
		db.Close()

		sharedContainer = container
		sharedConfig = cfg
	}

	tdb := &TestDB{Database: connect(t, sharedConfig), Container: sharedContainer, Config: sharedConfig, t: t}
	t.Cleanup(func() { tdb.Database.Close() })
	return tdb
}

// Close closes the connection and terminates a dedicated container
func (tdb *TestDB) Close() {
	tdb.Database.Close()

	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables empties every storefront table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			tdb.t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

// WithTransaction runs fn in a transaction that is always rolled back
func (tdb *TestDB) WithTransaction(fn func(tx *gorm.DB)) {
	tdb.t.Helper()

	tx := tdb.DB.Begin()
	require.NoError(tdb.t, tx.Error, "Failed to begin transaction")
	defer tx.Rollback()

	fn(tx)
}

// SeedGroups creates a brand and a category with unique names
func (tdb *TestDB) SeedGroups() (*catalog.Brand, *catalog.Category) {
	tdb.t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	brand, err := catalog.NewBrand("Brand " + suffix)
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormBrandRepository(tdb.DB).Save(ctx, brand))

	category, err := catalog.NewCategory("Category " + suffix)
	require.NoError(tdb.t, err)
	require.NoError(tdb.t, persistence.NewGormCategoryRepository(tdb.DB).Save(ctx, category))

	return brand, category
}

// SeedProduct creates a product in a fresh brand and category
func (tdb *TestDB) SeedProduct(name, price string, discount, stock int) *catalog.Product {
	tdb.t.Helper()

	brand, category := tdb.SeedGroups()
	return tdb.SeedProductIn(brand.ID, category.ID, name, price, discount, stock)
}

// SeedProductIn creates a product in the given brand and category
func (tdb *TestDB) SeedProductIn(brandID, categoryID uuid.UUID, name, price string, discount, stock int) *catalog.Product {
	tdb.t.Helper()

	p, err := catalog.NewProduct(name, decimal.RequireFromString(price), discount, stock, brandID, categoryID)
	require.NoError(tdb.t, err)
	p.SetColors([]string{"black", "white"})
	require.NoError(tdb.t, persistence.NewGormProductRepository(tdb.DB).Save(context.Background(), p))
	return p
}

func (tdb *TestDB) migrate() {
	tdb.t.Helper()

	sqlDB, err := tdb.DB.DB()
	require.NoError(tdb.t, err)

	// Closing the migrator would close sqlDB, so it is left to the GC.
	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(tdb.t, err, "Failed to create migrator")
	require.NoError(tdb.t, m.Up(), "Failed to run migrations")
}

func startPostgres(t *testing.T, dbName string) (*tcpostgres.PostgresContainer, *config.DatabaseConfig) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername(postgresUser),
		tcpostgres.WithPassword(postgresPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return container, &config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            portNum,
		User:            postgresUser,
		Password:        postgresPassword,
		DBName:          dbName,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
	}
}

func connect(t *testing.T, cfg *config.DatabaseConfig) *persistence.Database {
	t.Helper()

	db, err := persistence.NewDatabase(cfg)
	require.NoError(t, err, "Failed to connect to database")
	return db
}

// CleanupSharedContainer terminates the shared container. Call it from
// TestMain after the tests have run.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedConfig = nil
	}
}
