package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const pgUniqueViolation = "23505"

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = apperrors.NewConflict(apperrors.FormatErrorKey("signup", "emailExists"), "email already registered", nil)

// UserRepository defines persistence access for accounts. Methods taking a
// tx run inside the caller's unit of work; a nil tx falls back to the pool.
type UserRepository interface {
	FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*domain.User, error)
	FindByID(ctx context.Context, tx pgx.Tx, id string) (*domain.User, error)
	Create(ctx context.Context, tx pgx.Tx, profile domain.SignUpProfile) (*domain.User, error)
	IncrementWrongLoginCount(ctx context.Context, id string, maxAttempts int) (int, error)
	MarkLogin(ctx context.Context, tx pgx.Tx, id string, req domain.RequestContext) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type userRepository struct {
	pool       *pgxpool.Pool
	bcryptCost int
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool, bcryptCost int) UserRepository {
	return &userRepository{pool: pool, bcryptCost: bcryptCost}
}

const userColumns = `id::text, full_name, email, sex, passport_number, phone_number, birthdate, nationality,
        password_hash, role, status, wrong_login_count, last_wrong_login_attempt,
        last_login, last_login_ip, last_login_user_agent, created_at, updated_at`

func (r *userRepository) q(tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.pool
}

func (r *userRepository) FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.q(tx).QueryRow(ctx, query, normalizeEmail(email)))
}

func (r *userRepository) FindByID(ctx context.Context, tx pgx.Tx, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.q(tx).QueryRow(ctx, query, id))
}

func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, profile domain.SignUpProfile) (*domain.User, error) {
	hashed, err := auth.HashPassword(profile.Password, r.bcryptCost)
	if err != nil {
		return nil, err
	}

	var birthdate *time.Time
	if !profile.Birthdate.IsZero() {
		birthdate = &profile.Birthdate
	}

	query := `
        INSERT INTO users (full_name, email, sex, passport_number, phone_number, birthdate, nationality, password_hash, role, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING ` + userColumns
	user, err := scanUser(r.q(tx).QueryRow(ctx, query,
		strings.TrimSpace(profile.FullName),
		normalizeEmail(profile.Email),
		profile.Sex,
		profile.PassportNumber,
		profile.PhoneNumber,
		birthdate,
		profile.Nationality,
		hashed,
		auth.RoleUser.String(),
		domain.UserStatusActive,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// IncrementWrongLoginCount bumps the counter in one statement so concurrent
// failures cannot overwrite each other. The counter wraps to 1 past maxAttempts.
func (r *userRepository) IncrementWrongLoginCount(ctx context.Context, id string, maxAttempts int) (int, error) {
	const query = `
        UPDATE users SET
            wrong_login_count = CASE WHEN wrong_login_count + 1 > $2 THEN 1 ELSE wrong_login_count + 1 END,
            last_wrong_login_attempt = NOW(),
            updated_at = NOW()
        WHERE id=$1
        RETURNING wrong_login_count`

	var count int
	if err := r.pool.QueryRow(ctx, query, id, maxAttempts).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}
	return count, nil
}

func (r *userRepository) MarkLogin(ctx context.Context, tx pgx.Tx, id string, req domain.RequestContext) error {
	const query = `
        UPDATE users SET last_login=NOW(), last_login_ip=$2, last_login_user_agent=$3,
            wrong_login_count=0, updated_at=NOW()
        WHERE id=$1`

	cmd, err := r.q(tx).Exec(ctx, query, id, req.IP, req.UserAgent)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		hash        *string
		sex         *string
		passport    *string
		phone       *string
		nationality *string
		ip          *string
		agent       *string
	)
	if err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&sex,
		&passport,
		&phone,
		&user.Birthdate,
		&nationality,
		&hash,
		&user.Role,
		&user.Status,
		&user.WrongLoginCount,
		&user.LastWrongLoginAttempt,
		&user.LastLogin,
		&ip,
		&agent,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if hash != nil && *hash != "" {
		user.PasswordHash = auth.BcryptHash(*hash)
	}
	user.Sex = deref(sex)
	user.PassportNumber = deref(passport)
	user.PhoneNumber = deref(phone)
	user.Nationality = deref(nationality)
	user.LastLoginIP = deref(ip)
	user.LastLoginUserAgent = deref(agent)
	return &user, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
