package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

func (db *DB) CreateUser(req models.RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	utils.LogDB("Creating user: %s", email)
	start := time.Now()

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.LogError("Failed to hash password: %v", err)
		return nil, err
	}

	result, err := db.Exec(`
		INSERT INTO users (email, password_hash, created_at)
		VALUES (?, ?, ?)
	`, email, hashedPassword, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			utils.LogDB("CreateUser: email %s already registered", email)
			return nil, ErrEmailTaken
		}
		utils.LogError("CreateUser failed: %v (%v)", err, time.Since(start))
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		utils.LogError("Failed to get LastInsertId for user: %v", err)
		return nil, err
	}

	utils.LogDB("User created with ID %d in %v", id, time.Since(start))
	return db.GetUserByID(int(id))
}

func (db *DB) GetUserByID(id int) (*models.User, error) {
	utils.LogDB("Getting user by ID: %d", id)

	var user models.User
	err := db.QueryRow(`
		SELECT id, email, created_at FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.LogDB("User ID %d not found", id)
			return nil, ErrNotFound
		}
		utils.LogError("GetUserByID(%d) failed: %v", id, err)
		return nil, err
	}

	return &user, nil
}

func (db *DB) AuthenticateUser(email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	utils.LogDB("Authenticating user: %s", email)

	var user models.User
	var passwordHash string

	err := db.QueryRow(`
		SELECT id, email, created_at, password_hash
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &user.Email, &user.CreatedAt, &passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.LogDB("Authentication failed: user %s not found", email)
			return nil, ErrInvalidCredentials
		}
		utils.LogError("AuthenticateUser(%s) failed: %v", email, err)
		return nil, fmt.Errorf("authenticate %s: %w", email, err)
	}

	if !utils.CheckPassword(passwordHash, password) {
		utils.LogDB("Authentication failed: invalid password for user %s", email)
		return nil, ErrInvalidCredentials
	}

	utils.LogDB("User %s authenticated successfully", email)
	return &user, nil
}
