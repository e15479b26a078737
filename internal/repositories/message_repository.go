package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/toonarmycaptain/website/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message with both notification flags cleared
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO message (person_id, contents, email_sent, sms_sent)
		VALUES (?, ?, 0, 0)
	`

	res, err := r.db.ExecContext(ctx, query, message.PersonID, message.Contents)
	if err != nil {
		return err
	}

	message.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	message.EmailSent = false
	message.SMSSent = false
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := `
		SELECT id, person_id, contents, email_sent, sms_sent, created_at
		FROM message WHERE id = ?
	`

	message := &models.Message{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&message.ID, &message.PersonID, &message.Contents, &message.EmailSent, &message.SMSSent, &message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return message, nil
}

// MarkEmailSent flags the message as notified. Marking twice is harmless;
// an unknown ID returns sql.ErrNoRows.
func (r *MessageRepository) MarkEmailSent(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE message SET email_sent = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ListUnnotified returns messages whose email notification has not gone
// out and that are at least minAge old, oldest first. Younger messages may
// still have their first send in flight.
func (r *MessageRepository) ListUnnotified(ctx context.Context, minAge time.Duration, limit int) ([]*models.Submission, error) {
	query := submissionSelect + `
		WHERE m.email_sent = 0
		AND m.created_at <= datetime('now', ?)
		ORDER BY m.id
		LIMIT ?
	`
	return r.querySubmissions(ctx, query, ageModifier(minAge), limit)
}

// ageModifier renders minAge as a SQLite datetime modifier, rounded up to
// whole seconds since created_at has second precision.
func ageModifier(minAge time.Duration) string {
	seconds := int64(math.Ceil(minAge.Seconds()))
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("-%d seconds", seconds)
}

// ListSubmissions returns every message with its sender, oldest first
func (r *MessageRepository) ListSubmissions(ctx context.Context) ([]*models.Submission, error) {
	return r.querySubmissions(ctx, submissionSelect+` ORDER BY m.id`)
}

// CountByPersonID returns how many messages a person has sent
func (r *MessageRepository) CountByPersonID(ctx context.Context, personID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message WHERE person_id = ?`, personID).Scan(&count)
	return count, err
}

// CountUnnotified returns how many messages still wait for their email
func (r *MessageRepository) CountUnnotified(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message WHERE email_sent = 0`).Scan(&count)
	return count, err
}

const submissionSelect = `
	SELECT m.id, m.person_id, m.contents, m.email_sent, m.sms_sent, m.created_at,
		p.id, p.name, p.email, p.alternate_names, p.created_at, p.updated_at
	FROM message m
	INNER JOIN person p ON p.id = m.person_id
`

func (r *MessageRepository) querySubmissions(ctx context.Context, query string, args ...any) ([]*models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		message := &models.Message{}
		person := &models.Person{}
		var alternateNames sql.NullString
		err := rows.Scan(
			&message.ID, &message.PersonID, &message.Contents, &message.EmailSent, &message.SMSSent, &message.CreatedAt,
			&person.ID, &person.Name, &person.Email, &alternateNames, &person.CreatedAt, &person.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if alternateNames.Valid {
			person.AlternateNames = &alternateNames.String
		}
		submissions = append(submissions, &models.Submission{Message: message, Person: person})
	}

	return submissions, rows.Err()
}
