package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"prodsync/internal/db"
	"prodsync/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection, or the in-memory database vanishes between them.
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.EnsureSchema(context.Background(), conn))
	return conn
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func imageURLs(t *testing.T, conn *sql.DB, productID string) []string {
	t.Helper()
	rows, err := conn.Query(`SELECT url FROM product_images WHERE product_id = $1`, productID)
	require.NoError(t, err)
	defer rows.Close()
	var urls []string
	for rows.Next() {
		var u string
		require.NoError(t, rows.Scan(&u))
		urls = append(urls, u)
	}
	require.NoError(t, rows.Err())
	return urls
}

func testRecord() model.ProductRecord {
	return model.ProductRecord{
		Title:          "Phone X",
		Color:          "Black",
		Manufacturer:   "Apple",
		Price:          12999,
		Images:         []string{"https://img.example/1.jpg", "https://img.example/2.jpg"},
		Code:           "1145443",
		NumReviews:     17,
		ScreenDiagonal: 6.1,
		Characteristics: map[string]map[string]string{
			"Display":  {"Diagonal": `6.1"`},
			"Physical": {"Color": "Black"},
		},
	}
}

func TestSyncIdempotent(t *testing.T) {
	conn := openTestDB(t)
	repo := &ProductRepository{DB: conn}
	ctx := context.Background()
	rec := testRecord()

	first, err := repo.Sync(ctx, rec)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := repo.Sync(ctx, rec)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.ProductID, second.ProductID)

	require.Equal(t, 1, countRows(t, conn, "products"))
	require.Equal(t, 2, countRows(t, conn, "product_images"))
	require.Equal(t, 2, countRows(t, conn, "attribute_groups"))
	require.Equal(t, 2, countRows(t, conn, "attributes"))
	require.Equal(t, 2, countRows(t, conn, "attribute_values"))
	require.ElementsMatch(t, rec.Images, imageURLs(t, conn, first.ProductID))
}

func TestSyncReplacesImages(t *testing.T) {
	conn := openTestDB(t)
	repo := &ProductRepository{DB: conn}
	ctx := context.Background()

	rec := testRecord()
	first, err := repo.Sync(ctx, rec)
	require.NoError(t, err)

	rec.Images = []string{"https://img.example/3.jpg"}
	second, err := repo.Sync(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, first.ProductID, second.ProductID)

	require.Equal(t, []string{"https://img.example/3.jpg"}, imageURLs(t, conn, first.ProductID))
}

func TestSyncDedupsSharedAttributes(t *testing.T) {
	conn := openTestDB(t)
	repo := &ProductRepository{DB: conn}
	ctx := context.Background()

	a := testRecord()
	b := testRecord()
	b.Code = "2000001"
	b.Title = "Phone Y"
	b.Characteristics = map[string]map[string]string{
		"Display": {"Diagonal": `6.7"`},
	}

	_, err := repo.Sync(ctx, a)
	require.NoError(t, err)
	_, err = repo.Sync(ctx, b)
	require.NoError(t, err)

	require.Equal(t, 2, countRows(t, conn, "products"))
	var groups int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM attribute_groups WHERE name = $1`, "Display",
	).Scan(&groups))
	require.Equal(t, 1, groups)
	var attrs int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM attributes WHERE name = $1`, "Diagonal",
	).Scan(&attrs))
	require.Equal(t, 1, attrs)

	// One value row per product for the shared attribute.
	var values int
	require.NoError(t, conn.QueryRow(`
		SELECT COUNT(*) FROM attribute_values av
		JOIN attributes a ON a.id = av.attribute_id
		WHERE a.name = $1
	`, "Diagonal").Scan(&values))
	require.Equal(t, 2, values)
}

func TestSyncUpdatesScalarsForSameCode(t *testing.T) {
	conn := openTestDB(t)
	repo := &ProductRepository{DB: conn}
	ctx := context.Background()

	rec := testRecord()
	first, err := repo.Sync(ctx, rec)
	require.NoError(t, err)

	rec.Price = 11499
	rec.Color = "White"
	second, err := repo.Sync(ctx, rec)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.ProductID, second.ProductID)

	require.Equal(t, 1, countRows(t, conn, "products"))
	var price int
	var color string
	require.NoError(t, conn.QueryRow(
		`SELECT price, color FROM products WHERE id = $1`, first.ProductID,
	).Scan(&price, &color))
	require.Equal(t, 11499, price)
	require.Equal(t, "White", color)
}

func TestSyncWithoutCodeMatchesOnScalars(t *testing.T) {
	conn := openTestDB(t)
	repo := &ProductRepository{DB: conn}
	ctx := context.Background()

	rec := testRecord()
	rec.Code = ""
	_, err := repo.Sync(ctx, rec)
	require.NoError(t, err)
	_, err = repo.Sync(ctx, rec)
	require.NoError(t, err)

	require.Equal(t, 1, countRows(t, conn, "products"))
}

func TestSyncRollsBackAsOneUnit(t *testing.T) {
	conn := openTestDB(t)
	repo := &ProductRepository{DB: conn}
	ctx := context.Background()

	// Break the last step of the sync; nothing from the earlier steps may
	// survive.
	_, err := conn.Exec(`DROP TABLE attribute_values`)
	require.NoError(t, err)

	_, err = repo.Sync(ctx, testRecord())
	require.Error(t, err)

	require.Equal(t, 0, countRows(t, conn, "products"))
	require.Equal(t, 0, countRows(t, conn, "product_images"))
}
