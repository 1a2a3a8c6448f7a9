package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"prodsync/internal/model"
	"prodsync/internal/observability"
)

type ProductRepository struct {
	DB *sql.DB
}

// SyncResult reports what one sync did, so callers can tell a committed run
// from a rolled-back one instead of guessing from logs.
type SyncResult struct {
	ProductID       string
	Created         bool
	Images          int
	AttributeValues int
}

// Sync converges stored state to mirror rec inside one transaction: product
// upsert by natural key, wholesale replacement of the image set, lazy
// creation of shared attribute groups/attributes, wholesale replacement of
// the product's attribute values. Any step error rolls the whole unit back
// and is returned to the caller.
func (r *ProductRepository) Sync(ctx context.Context, rec model.ProductRecord) (SyncResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return SyncResult{}, fmt.Errorf("begin sync: %w", err)
	}

	res, err := syncTx(ctx, tx, rec)
	if err != nil {
		tx.Rollback()
		observability.SyncFailuresTotal.Inc()
		return SyncResult{}, err
	}
	if err := tx.Commit(); err != nil {
		observability.SyncFailuresTotal.Inc()
		return SyncResult{}, fmt.Errorf("commit sync: %w", err)
	}

	observability.ProductsSyncedTotal.Inc()
	return res, nil
}

func syncTx(ctx context.Context, tx *sql.Tx, rec model.ProductRecord) (SyncResult, error) {
	productID, created, err := getOrCreateProduct(ctx, tx, rec)
	if err != nil {
		return SyncResult{}, fmt.Errorf("upsert product: %w", err)
	}

	images, err := replaceImages(ctx, tx, productID, rec.Images)
	if err != nil {
		return SyncResult{}, fmt.Errorf("replace images: %w", err)
	}

	values, err := replaceAttributeValues(ctx, tx, productID, rec.Characteristics)
	if err != nil {
		return SyncResult{}, fmt.Errorf("replace attribute values: %w", err)
	}

	return SyncResult{
		ProductID:       productID,
		Created:         created,
		Images:          images,
		AttributeValues: values,
	}, nil
}

// getOrCreateProduct resolves the product row by natural key: the product
// code when it was extracted, otherwise (title, color, manufacturer). A match
// gets its scalar columns updated in place; no match inserts a new row.
// Product rows are never deleted here.
func getOrCreateProduct(ctx context.Context, tx *sql.Tx, rec model.ProductRecord) (string, bool, error) {
	var (
		id  string
		err error
	)
	if rec.Code != "" {
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM products WHERE code = $1`, rec.Code,
		).Scan(&id)
	} else {
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM products WHERE title = $1 AND color = $2 AND manufacturer = $3`,
			rec.Title, rec.Color, rec.Manufacturer,
		).Scan(&id)
	}

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET title = $1, color = $2, ssd = $3, manufacturer = $4, price = $5,
			    promo_price = $6, num_reviews = $7, screen_diagonal = $8, resolution = $9
			WHERE id = $10
		`, rec.Title, rec.Color, rec.SSD, rec.Manufacturer, rec.Price,
			rec.PromoPrice, rec.NumReviews, rec.ScreenDiagonal, rec.Resolution, id)
		return id, false, err
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO products
			(id, title, color, ssd, manufacturer, price, promo_price, code, num_reviews, screen_diagonal, resolution)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, id, rec.Title, rec.Color, rec.SSD, rec.Manufacturer, rec.Price,
			rec.PromoPrice, rec.Code, rec.NumReviews, rec.ScreenDiagonal, rec.Resolution)
		return id, true, err
	default:
		return "", false, err
	}
}

// replaceImages drops the product's image set and recreates it from urls in
// extraction order. No diffing: wholesale replacement keeps re-runs
// convergent.
func replaceImages(ctx context.Context, tx *sql.Tx, productID string, urls []string) (int, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM product_images WHERE product_id = $1`, productID,
	); err != nil {
		return 0, err
	}
	for _, u := range urls {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (id, product_id, url) VALUES ($1, $2, $3)`,
			uuid.New().String(), productID, u,
		); err != nil {
			return 0, err
		}
	}
	return len(urls), nil
}

func replaceAttributeValues(ctx context.Context, tx *sql.Tx, productID string, characteristics map[string]map[string]string) (int, error) {
	type pending struct {
		attributeID string
		value       string
	}
	var values []pending

	for groupName, attrs := range characteristics {
		groupID, err := getOrCreateGroup(ctx, tx, groupName)
		if err != nil {
			return 0, err
		}
		for attrName, value := range attrs {
			attributeID, err := getOrCreateAttribute(ctx, tx, groupID, attrName)
			if err != nil {
				return 0, err
			}
			values = append(values, pending{attributeID: attributeID, value: value})
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attribute_values WHERE product_id = $1`, productID,
	); err != nil {
		return 0, err
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attribute_values (id, attribute_id, product_id, value) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), v.attributeID, productID, v.value,
		); err != nil {
			return 0, err
		}
	}
	return len(values), nil
}

// Attribute groups and attributes are shared reference data: created lazily
// on first sight, reused by every product after that.
func getOrCreateGroup(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM attribute_groups WHERE name = $1`, name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO attribute_groups (id, name) VALUES ($1, $2)`, id, name)
	}
	return id, err
}

func getOrCreateAttribute(ctx context.Context, tx *sql.Tx, groupID, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM attributes WHERE group_id = $1 AND name = $2`, groupID, name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO attributes (id, group_id, name) VALUES ($1, $2, $3)`, id, groupID, name)
	}
	return id, err
}
