package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
)

// CanonicalTestAdapter implements CanonicalTestRepository, the registry
// snapshot store written at provisioning time and read back by serving
// processes.
type CanonicalTestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCanonicalTestAdapter creates a new canonical test adapter
func NewCanonicalTestAdapter(client *postgres.Client) repositories.CanonicalTestRepository {
	return &CanonicalTestAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ReplaceAll swaps the stored snapshot for the given definition set in one
// transaction, so readers never observe a half-written registry.
func (a *CanonicalTestAdapter) ReplaceAll(ctx context.Context, defs []*entities.CanonicalTestDefinition) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	deleteSQL, deleteArgs, err := a.db.Delete("canonical_tests").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err = tx.ExecContext(ctx, deleteSQL, deleteArgs...); err != nil {
		return apperrors.NewInternalError("failed to clear canonical tests", err)
	}

	for _, def := range defs {
		record := goqu.Record{
			"id":             def.ID,
			"canonical_name": def.CanonicalName,
			"code":           def.Code,
			"category":       string(def.Category),
			"aliases":        pq.Array(def.Aliases),
			"created_at":     def.CreatedAt,
		}

		insertSQL, insertArgs, err := a.db.Insert("canonical_tests").Rows(record).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err = tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to insert canonical test %s", def.ID), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit canonical tests", err)
	}

	return nil
}

// ListAll retrieves the full snapshot in stored order
func (a *CanonicalTestAdapter) ListAll(ctx context.Context) ([]*entities.CanonicalTestDefinition, error) {
	query, args, err := a.db.Select(
		"id", "canonical_name", "code", "category", "aliases", "created_at",
	).From("canonical_tests").
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list canonical tests", err)
	}
	defer rows.Close()

	var defs []*entities.CanonicalTestDefinition
	for rows.Next() {
		def := &entities.CanonicalTestDefinition{}
		var category string

		err := rows.Scan(
			&def.ID,
			&def.CanonicalName,
			&def.Code,
			&category,
			pq.Array(&def.Aliases),
			&def.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan canonical test", err)
		}

		def.Category = entities.TestCategory(category)
		defs = append(defs, def)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating canonical tests", err)
	}

	return defs, nil
}

// GetByCode retrieves a definition by its authoritative code
func (a *CanonicalTestAdapter) GetByCode(ctx context.Context, code string) (*entities.CanonicalTestDefinition, error) {
	query, args, err := a.db.Select(
		"id", "canonical_name", "code", "category", "aliases", "created_at",
	).From("canonical_tests").
		Where(goqu.Ex{"code": code}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	def := &entities.CanonicalTestDefinition{}
	var category string

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&def.ID,
		&def.CanonicalName,
		&def.Code,
		&category,
		pq.Array(&def.Aliases),
		&def.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("canonical test with code %s not found", code))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get canonical test", err)
	}

	def.Category = entities.TestCategory(category)
	return def, nil
}
