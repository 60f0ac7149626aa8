//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"

	"concord/auth"
	"concord/domain"
	"concord/errors"
	"concord/repositories"
)

type IAuthService interface {
	Register(username, password, displayName string) (Token, domain.User, error)
	Login(username, password string) (Token, domain.User, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(username, password, displayName string) (Token, domain.User, error) {
	if displayName == "" {
		displayName = username
	}

	// Validate business rules before any expensive cryptographic work.
	// The error already carries the per-field sentinel.
	valReq := auth.RegisterRequest{
		Username:    username,
		Password:    password,
		DisplayName: displayName,
	}
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", domain.User{}, err
	}

	// Hash in the service layer to keep the repository unaware of plain
	// passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	stored, err := s.users.CreateUser(username, displayName, hashedPassword)
	if err != nil {
		return "", domain.User{}, err // Propagates ErrUserAlreadyExists.
	}

	return s.issueToken(stored)
}

func (s *AuthService) Login(username, password string) (Token, domain.User, error) {
	stored, err := s.users.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, stored.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	return s.issueToken(stored)
}

func (s *AuthService) issueToken(stored repositories.User) (Token, domain.User, error) {
	user := domain.User{
		ID:          stored.ID,
		Username:    stored.Username,
		DisplayName: stored.DisplayName,
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}
