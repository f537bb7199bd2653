package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"artastic/internal/apperr"
	"artastic/internal/draft"
	"artastic/internal/models"
	"artastic/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numeric renders a value the way a numeric(12,2) column hands it back.
func numeric(d decimal.Decimal) string {
	return d.Round(models.MoneyPlaces).StringFixed(models.MoneyPlaces)
}

func TestOrderRoundTrip_BuiltDraftSurvivesStorage(t *testing.T) {
	cases := []struct {
		name    string
		prices  []string
		qty     []int
		deposit string
	}{
		{"whole prices", []string{"20", "15"}, []int{2, 1}, "10"},
		{"cents", []string{"0.35", "18.75"}, []int{3, 2}, "12,50"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := setupMockDB(t)
			repo := repository.NewOrderRepository(gormDB)
			now := time.Now()

			d := draft.New(now)
			d.SelectClient(&models.Client{ID: uuid.New(), Name: "Ana"})
			d.DepositInput = tc.deposit
			for i, price := range tc.prices {
				piece := &models.Piece{ID: uuid.New(), Name: "Pieza", Stock: 10, RetailPrice: decimal.NewFromInt(1)}
				require.NoError(t, d.AddItem(piece, tc.qty[i], decimal.NewNullDecimal(decimal.RequireFromString(price))))
			}
			order, items, err := d.Build()
			require.NoError(t, err)

			orderID := uuid.New()
			itemIDs := sqlmock.NewRows([]string{"id"})
			for range items {
				itemIDs.AddRow(uuid.New())
			}
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID))
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
				WillReturnRows(itemIDs)
			mock.ExpectCommit()
			require.NoError(t, repo.Create(context.Background(), &order, items))

			orderCols := []string{"id", "client_id", "client_name", "status", "order_type", "delivery_date", "description", "deposit", "total_price", "total_overridden", "created_at", "updated_at"}
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
				WillReturnRows(sqlmock.NewRows(orderCols).
					AddRow(orderID, *order.ClientID, order.ClientName, string(order.Status), string(order.OrderType), now, "",
						numeric(order.Deposit.Decimal), numeric(order.TotalPrice), order.TotalOverridden, now, now))
			itemRows := sqlmock.NewRows([]string{"id", "order_id", "piece_id", "position", "quantity", "price_per_unit", "created_at"})
			for _, item := range items {
				itemRows.AddRow(uuid.New(), orderID, item.PieceID, item.Position, item.Quantity, numeric(item.PricePerUnit), now)
			}
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items"`)).WillReturnRows(itemRows)

			fetched, err := repo.GetAll(context.Background())
			require.NoError(t, err)
			require.Len(t, fetched, 1)
			got := fetched[0]

			require.Len(t, got.Items, len(items))
			for i, item := range items {
				assert.Equal(t, item.Quantity, got.Items[i].Quantity)
				assert.True(t, item.PricePerUnit.Equal(got.Items[i].PricePerUnit), "price %s vs %s", item.PricePerUnit, got.Items[i].PricePerUnit)
			}
			assert.True(t, order.TotalPrice.Equal(got.TotalPrice))
			assert.True(t, got.ItemsTotal().Equal(got.TotalPrice))
			assert.True(t, order.Deposit.Decimal.Equal(got.Deposit.Decimal))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderRoundTrip_FractionOfCentNeverReachesStorage(t *testing.T) {
	d := draft.New(time.Now())
	piece := &models.Piece{ID: uuid.New(), Name: "Pieza", Stock: 10, RetailPrice: decimal.NewFromInt(1)}

	err := d.AddItem(piece, 3, decimal.NewNullDecimal(decimal.RequireFromString("0.335")))
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, d.Lines())
}
