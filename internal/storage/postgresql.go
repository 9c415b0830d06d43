// Package storage реализует хранилище на PostgreSQL для пользователей,
// их профилей, тарифных планов и пользовательских сессий.
//
// Все изменения, затрагивающие несколько таблиц (каскадное и мягкое удаление
// пользователя), выполняются в одной транзакции. Уникальность токена сессии
// обеспечивается ограничением uq_user_sessions_token, а не проверкой в коде.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrUserNotFound пользователь не существует или удалён мягко (для операций над активными).
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken email уже занят другим пользователем.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionNotFound сессии с таким токеном нет.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionConflict токен сессии уже существует.
	ErrSessionConflict = errors.New("session token conflict")
	// ErrPlanNotFound тарифного плана нет.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrProfileNotFound профиля нет.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrPlanNameTaken план с таким названием уже есть.
	ErrPlanNameTaken = errors.New("subscription plan name taken")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Ping проверяет доступность базы, используется в healthcheck.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables 
        WHERE table_name = 'user_sessions'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table user_sessions query error: %w", err)
	}
	if !exists {
		return errors.New("required table user_sessions missing")
	}
	return nil
}

// isUniqueViolation сообщает, что err нарушение уникального ограничения constraint.
// Пустой constraint совпадает с любым ограничением.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// withTx выполняет fn в транзакции: коммит при nil, откат при ошибке.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
