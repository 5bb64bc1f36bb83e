package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
)

// LaboratoryAdapter implements LaboratoryRepository
type LaboratoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewLaboratoryAdapter creates a new laboratory adapter
func NewLaboratoryAdapter(client *postgres.Client) repositories.LaboratoryRepository {
	return &LaboratoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new laboratory
func (a *LaboratoryAdapter) Create(ctx context.Context, lab *entities.Laboratory) error {
	record := goqu.Record{
		"id":         lab.ID,
		"name":       lab.Name,
		"code":       lab.Code,
		"contact":    sql.NullString{String: lab.Contact, Valid: lab.Contact != ""},
		"is_active":  lab.IsActive,
		"created_at": lab.CreatedAt,
		"updated_at": lab.UpdatedAt,
	}

	query, args, err := a.db.Insert("laboratories").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create laboratory", err)
	}

	return nil
}

// GetByID retrieves a laboratory by ID
func (a *LaboratoryAdapter) GetByID(ctx context.Context, id string) (*entities.Laboratory, error) {
	query, args, err := a.db.Select(
		"id", "name", "code", "contact", "is_active", "created_at", "updated_at",
	).From("laboratories").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	lab := &entities.Laboratory{}
	var contact sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&lab.ID,
		&lab.Name,
		&lab.Code,
		&contact,
		&lab.IsActive,
		&lab.CreatedAt,
		&lab.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("laboratory with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get laboratory", err)
	}

	lab.Contact = contact.String
	return lab, nil
}

// List retrieves laboratories with filters
func (a *LaboratoryAdapter) List(ctx context.Context, filter repositories.LaboratoryFilter) ([]*entities.Laboratory, error) {
	ds := a.db.Select(
		"id", "name", "code", "contact", "is_active", "created_at", "updated_at",
	).From("laboratories")

	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list laboratories", err)
	}
	defer rows.Close()

	var labs []*entities.Laboratory
	for rows.Next() {
		lab := &entities.Laboratory{}
		var contact sql.NullString

		err := rows.Scan(
			&lab.ID,
			&lab.Name,
			&lab.Code,
			&contact,
			&lab.IsActive,
			&lab.CreatedAt,
			&lab.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan laboratory", err)
		}

		lab.Contact = contact.String
		labs = append(labs, lab)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating laboratories", err)
	}

	return labs, nil
}

// Update updates a laboratory
func (a *LaboratoryAdapter) Update(ctx context.Context, lab *entities.Laboratory) error {
	lab.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":       lab.Name,
		"code":       lab.Code,
		"contact":    sql.NullString{String: lab.Contact, Valid: lab.Contact != ""},
		"is_active":  lab.IsActive,
		"updated_at": lab.UpdatedAt,
	}

	query, args, err := a.db.Update("laboratories").
		Set(record).
		Where(goqu.Ex{"id": lab.ID}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update laboratory", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("laboratory with id %s not found", lab.ID))
	}

	return nil
}

// Deactivate soft-deletes a laboratory
func (a *LaboratoryAdapter) Deactivate(ctx context.Context, id string) error {
	query, args, err := a.db.Update("laboratories").
		Set(goqu.Record{
			"is_active":  false,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build deactivate query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to deactivate laboratory", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("laboratory with id %s not found", id))
	}

	return nil
}
