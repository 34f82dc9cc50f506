package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
	"github.com/taskhub/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns the Postgres-backed user collection.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT doc FROM users WHERE id = $1`

	var doc []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StoreFailure("users.get", err)
	}

	var user domain.User
	if err := json.Unmarshal(doc, &user); err != nil {
		return nil, domain.StoreFailure("users.decode", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, q storequery.Query) ([]domain.User, error) {
	query, args := buildFindSQL("users", q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure("users.list", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, domain.StoreFailure("users.list", err)
		}
		var user domain.User
		if err := json.Unmarshal(doc, &user); err != nil {
			return nil, domain.StoreFailure("users.decode", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure("users.list", err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	query, args := buildCountSQL("users", where)

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, domain.StoreFailure("users.count", err)
	}
	return count, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}

	doc, err := json.Marshal(user)
	if err != nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `INSERT INTO users (id, doc) VALUES ($1, $2)`
	if _, err := r.pool.Exec(ctx, query, user.ID, doc); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, domain.StoreFailure("users.insert", err)
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	doc, err := json.Marshal(user)
	if err != nil {
		return domain.ErrInvalidPayload
	}

	const query = `UPDATE users SET doc = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, user.ID, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return domain.StoreFailure("users.update", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return domain.StoreFailure("users.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
