package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestOrder(t *testing.T, invoice string, customerID uuid.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder(invoice, customerID, []order.LineItem{
		{ProductID: uuid.New(), Name: "Desk Lamp", UnitPrice: decimal.RequireFromString("100.00"), DiscountPercent: 10, Quantity: 2, Color: "red"},
		{ProductID: uuid.New(), Name: "Bulb", UnitPrice: decimal.RequireFromString("3.25"), Quantity: 4},
	})
	require.NoError(t, err)
	return o
}

func TestGormOrderRepository_CreateAndFind(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	o := newTestOrder(t, "a1b2c3d4e5f6a7b8c9d0", customerID)
	require.NoError(t, repo.Create(ctx, o))

	t.Run("finds by invoice with line items in order", func(t *testing.T) {
		found, err := repo.FindByInvoice(ctx, customerID, o.Invoice)
		require.NoError(t, err)
		assert.Equal(t, o.ID, found.ID)
		assert.Equal(t, order.StatusPending, found.Status)
		require.Len(t, found.LineItems, 2)
		assert.Equal(t, "Desk Lamp", found.LineItems[0].Name)
		assert.Equal(t, "Bulb", found.LineItems[1].Name)
		assert.True(t, decimal.RequireFromString("3.25").Equal(found.LineItems[1].UnitPrice))
		assert.Empty(t, found.GetDomainEvents())
	})

	t.Run("invoice belongs to another customer", func(t *testing.T) {
		_, err := repo.FindByInvoice(ctx, uuid.New(), o.Invoice)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("exists by invoice", func(t *testing.T) {
		exists, err := repo.ExistsByInvoice(ctx, o.Invoice)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByInvoice(ctx, "ffffffffffffffffffff")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate invoice", func(t *testing.T) {
		dup := newTestOrder(t, o.Invoice, uuid.New())
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, order.ErrDuplicateInvoice)
	})
}

func TestGormOrderRepository_FindByCustomer(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	for _, inv := range []string{"00000000000000000001", "00000000000000000002", "00000000000000000003"} {
		require.NoError(t, repo.Create(ctx, newTestOrder(t, inv, customerID)))
	}
	require.NoError(t, repo.Create(ctx, newTestOrder(t, "00000000000000000004", uuid.New())))

	filter := shared.DefaultFilter()
	filter.PageSize = 2
	orders, total, err := repo.FindByCustomer(ctx, customerID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, customerID, o.CustomerID)
		assert.Len(t, o.LineItems, 2)
	}

	filter.Filters["status"] = order.StatusPaid
	_, total, err = repo.FindByCustomer(ctx, customerID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestGormOrderRepository_SaveWithLock(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	o := newTestOrder(t, "abcdefabcdefabcdefab", customerID)
	require.NoError(t, repo.Create(ctx, o))

	first, err := repo.FindByInvoice(ctx, customerID, o.Invoice)
	require.NoError(t, err)
	second, err := repo.FindByInvoice(ctx, customerID, o.Invoice)
	require.NoError(t, err)

	require.NoError(t, first.MarkPaid())
	require.NoError(t, repo.SaveWithLock(ctx, first))
	assert.Equal(t, o.Version+1, first.Version)

	require.NoError(t, second.MarkPaid())
	err = repo.SaveWithLock(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	stored, err := repo.FindByInvoice(ctx, customerID, o.Invoice)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
}

// newMockOrderRepository creates a GormOrderRepository over sqlmock
func newMockOrderRepository(t *testing.T) (*GormOrderRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormOrderRepository(gormDB), mock
}

func TestGormOrderRepository_StorageFailures(t *testing.T) {
	t.Run("read is retried once then succeeds", func(t *testing.T) {
		repo, mock := newMockOrderRepository(t)
		customerID := uuid.New()
		orderID := uuid.New()
		query := regexp.QuoteMeta(`SELECT * FROM "orders" WHERE (invoice = $1 AND customer_id = $2)`)

		mock.ExpectQuery(query).WillReturnError(errors.New("connection reset by peer"))
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"id", "invoice", "status", "customer_id", "version"}).
			AddRow(orderID, "abc", "pending", customerID, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_line_items" WHERE "order_line_items"."order_id" = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "position", "name"}))

		found, err := repo.FindByInvoice(context.Background(), customerID, "abc")
		require.NoError(t, err)
		assert.Equal(t, orderID, found.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second failure surfaces as storage unavailable", func(t *testing.T) {
		repo, mock := newMockOrderRepository(t)
		query := regexp.QuoteMeta(`SELECT * FROM "orders"`)
		driverErr := errors.New("dial tcp 10.0.0.5:5432: connection refused")

		mock.ExpectQuery(query).WillReturnError(driverErr)
		mock.ExpectQuery(query).WillReturnError(driverErr)

		_, err := repo.FindByInvoice(context.Background(), uuid.New(), "abc")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStorageUnavailable)
		assert.ErrorIs(t, err, driverErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found is not retried", func(t *testing.T) {
		repo, mock := newMockOrderRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByInvoice(context.Background(), uuid.New(), "abc")
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version reports a conflict", func(t *testing.T) {
		repo, mock := newMockOrderRepository(t)
		o := newTestOrder(t, "abc", uuid.New())
		require.NoError(t, o.MarkPaid())

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), o)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
