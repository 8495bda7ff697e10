package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, full_name, password_hash
    FROM users
    WHERE email = $1
  `, email).Scan(&out.ID, &out.Email, &out.FullName, &out.PasswordHash)
	return out, err
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, full_name, password_hash
    FROM users
    WHERE id = $1
  `, userID).Scan(&out.ID, &out.Email, &out.FullName, &out.PasswordHash)
	return out, err
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash, fullName string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, full_name)
    VALUES ($1,$2,$3)
    RETURNING id
  `, email, passwordHash, fullName).Scan(&id)
	return id, err
}
