package repositories

import (
	"context"
	"database/sql"

	"github.com/toonarmycaptain/website/internal/models"
)

type PersonRepository struct {
	db DBTX
}

func NewPersonRepository(db DBTX) *PersonRepository {
	return &PersonRepository{db: db}
}

// Create inserts a new person and sets its ID
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO person (name, email, alternate_names)
		VALUES (?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query, person.Name, person.Email, nullString(person.AlternateNames))
	if err != nil {
		return err
	}

	person.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a person by ID
func (r *PersonRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	query := `
		SELECT id, name, email, alternate_names, created_at, updated_at
		FROM person WHERE id = ?
	`
	return scanPerson(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a person by exact email match
func (r *PersonRepository) GetByEmail(ctx context.Context, email string) (*models.Person, error) {
	query := `
		SELECT id, name, email, alternate_names, created_at, updated_at
		FROM person WHERE email = ?
	`
	return scanPerson(r.db.QueryRowContext(ctx, query, email))
}

// UpdateAlternateNames stores the person's alternate name list
func (r *PersonRepository) UpdateAlternateNames(ctx context.Context, person *models.Person) error {
	query := `
		UPDATE person SET
			alternate_names = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query, nullString(person.AlternateNames), person.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Count returns the number of stored people
func (r *PersonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM person`).Scan(&count)
	return count, err
}

func scanPerson(row *sql.Row) (*models.Person, error) {
	person := &models.Person{}
	var alternateNames sql.NullString
	err := row.Scan(
		&person.ID, &person.Name, &person.Email, &alternateNames, &person.CreatedAt, &person.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if alternateNames.Valid {
		person.AlternateNames = &alternateNames.String
	}
	return person, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// expectAffected turns an update that matched nothing into sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
