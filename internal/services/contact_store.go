package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/models"
	"github.com/toonarmycaptain/website/internal/repositories"
)

// ContactStore owns the person and message tables. Every public write runs in
// its own transaction.
type ContactStore struct {
	db               *sql.DB
	messageMaxLength int
	log              *logrus.Logger
}

func NewContactStore(db *sql.DB, messageMaxLength int, log *logrus.Logger) *ContactStore {
	return &ContactStore{
		db:               db,
		messageMaxLength: messageMaxLength,
		log:              log,
	}
}

// MessageMaxLength is the longest accepted message, in characters
func (s *ContactStore) MessageMaxLength() int {
	return s.messageMaxLength
}

// GetPersonByEmail looks a person up by exact email. A missing person is
// reported as models.ErrNotFound.
func (s *ContactStore) GetPersonByEmail(ctx context.Context, email string) (*models.Person, error) {
	person, err := repositories.NewPersonRepository(s.db).GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: person with email %q", models.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return person, nil
}

// StorePerson returns the ID of the person owning email, creating the person
// on first sight. A name differing from the stored one is appended to the
// alternate names unless it is already there.
func (s *ContactStore) StorePerson(ctx context.Context, name, email string) (int64, error) {
	var personID int64
	err := s.withTx(ctx, func(people *repositories.PersonRepository, _ *repositories.MessageRepository) error {
		var err error
		personID, err = s.resolvePerson(ctx, people, name, email)
		return err
	})
	return personID, err
}

// StoreMessageText stores contents as a new message owned by personID
func (s *ContactStore) StoreMessageText(ctx context.Context, personID int64, contents string) (int64, error) {
	if err := s.checkContents(contents); err != nil {
		return 0, err
	}

	var messageID int64
	err := s.withTx(ctx, func(_ *repositories.PersonRepository, messages *repositories.MessageRepository) error {
		var err error
		messageID, err = insertMessage(ctx, messages, personID, contents)
		return err
	})
	return messageID, err
}

// StoreContact resolves the sender and stores their message in one
// transaction, returning the message ID. Nothing is written when the message
// is rejected.
func (s *ContactStore) StoreContact(ctx context.Context, name, email, message string) (int64, error) {
	if err := s.checkContents(message); err != nil {
		return 0, err
	}

	var messageID int64
	err := s.withTx(ctx, func(people *repositories.PersonRepository, messages *repositories.MessageRepository) error {
		personID, err := s.resolvePerson(ctx, people, name, email)
		if err != nil {
			return err
		}
		messageID, err = insertMessage(ctx, messages, personID, message)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.WithField("message_id", messageID).Info("Stored contact message")
	return messageID, nil
}

// MarkEmailSent records that the notification for messageID was delivered.
// Repeating it is harmless; an unknown ID is models.ErrNotFound.
func (s *ContactStore) MarkEmailSent(ctx context.Context, messageID int64) error {
	return s.withTx(ctx, func(_ *repositories.PersonRepository, messages *repositories.MessageRepository) error {
		err := messages.MarkEmailSent(ctx, messageID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: message %d", models.ErrNotFound, messageID)
		}
		if err != nil {
			return fmt.Errorf("failed to mark email sent: %w", err)
		}
		return nil
	})
}

// GetMessage retrieves a message by ID
func (s *ContactStore) GetMessage(ctx context.Context, messageID int64) (*models.Message, error) {
	message, err := repositories.NewMessageRepository(s.db).GetByID(ctx, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message %d", models.ErrNotFound, messageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return message, nil
}

// UnnotifiedMessages returns up to limit messages at least minAge old that
// are still waiting for their email notification, oldest first.
func (s *ContactStore) UnnotifiedMessages(ctx context.Context, minAge time.Duration, limit int) ([]*models.Submission, error) {
	submissions, err := repositories.NewMessageRepository(s.db).ListUnnotified(ctx, minAge, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unnotified messages: %w", err)
	}
	return submissions, nil
}

// UnnotifiedCount returns how many messages still wait for their email
func (s *ContactStore) UnnotifiedCount(ctx context.Context) (int, error) {
	count, err := repositories.NewMessageRepository(s.db).CountUnnotified(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unnotified messages: %w", err)
	}
	return count, nil
}

// Submissions returns every stored message with its sender
func (s *ContactStore) Submissions(ctx context.Context) ([]*models.Submission, error) {
	submissions, err := repositories.NewMessageRepository(s.db).ListSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// Ping checks the database connection
func (s *ContactStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ContactStore) resolvePerson(ctx context.Context, people *repositories.PersonRepository, name, email string) (int64, error) {
	person, err := people.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		person = models.NewPerson(name, email)
		if err := people.Create(ctx, person); err != nil {
			return 0, storeError("failed to create person", err)
		}
		s.log.WithField("person_id", person.ID).Debug("Created person")
		return person.ID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get person: %w", err)
	}

	if person.AddAlternateName(name) {
		if err := people.UpdateAlternateNames(ctx, person); err != nil {
			return 0, storeError("failed to update alternate names", err)
		}
		s.log.WithField("person_id", person.ID).Debug("Added alternate name")
	}

	return person.ID, nil
}

func insertMessage(ctx context.Context, messages *repositories.MessageRepository, personID int64, contents string) (int64, error) {
	message := models.NewMessage(personID, contents)
	if err := messages.Create(ctx, message); err != nil {
		return 0, storeError("failed to create message", err)
	}
	return message.ID, nil
}

// checkContents applies the message length rule before any write. Length is
// counted in characters, as SQLite's length() does for TEXT.
func (s *ContactStore) checkContents(contents string) error {
	if contents == "" {
		return fmt.Errorf("%w: message must not be empty", models.ErrConstraintViolation)
	}
	if n := utf8.RuneCountInString(contents); n > s.messageMaxLength {
		return fmt.Errorf("%w: message is %d characters, maximum is %d", models.ErrConstraintViolation, n, s.messageMaxLength)
	}
	return nil
}

func (s *ContactStore) withTx(ctx context.Context, fn func(*repositories.PersonRepository, *repositories.MessageRepository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(repositories.NewPersonRepository(tx), repositories.NewMessageRepository(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit transaction", err)
	}
	return nil
}

// storeError wraps err, classifying SQLite constraint failures (CHECK,
// UNIQUE, FOREIGN KEY, NOT NULL) as models.ErrConstraintViolation.
func storeError(msg string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %v", msg, models.ErrConstraintViolation, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
