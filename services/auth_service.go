package services

import (
	"fmt"
	"social-chat/auth"
	"social-chat/domain/chat"
	"social-chat/errors"
	"social-chat/repositories"
	"strings"
)

type IAuthService interface {
	Register(username, email, password string) (Credentials, error)
	Login(username, password string) (Credentials, error)
}

// Credentials is what a client needs to open authenticated connections.
type Credentials struct {
	Token    string      `json:"token"`
	UserID   chat.UserID `json:"user_id"`
	Username string      `json:"username"`
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
}

func NewAuthService(repo repositories.IUserRepository, issuer *auth.TokenIssuer) *AuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(username, email, password string) (Credentials, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	// Business rules are checked before any expensive cryptographic operation
	if err := auth.ValidateRegister(auth.RegisterRequest{Username: username, Email: email, Password: password}); err != nil {
		return Credentials{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return Credentials{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(username, email, hashedPassword)
	if err != nil {
		return Credentials{}, err
	}
	return s.credentials(user.ID, user.Username)
}

func (s *AuthService) Login(username, password string) (Credentials, error) {
	user, err := s.userRepository.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		// Same answer for unknown users and wrong passwords
		return Credentials{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Credentials{}, errors.ErrInvalidCredentials
	}
	return s.credentials(user.ID, user.Username)
}

func (s *AuthService) credentials(id chat.UserID, username string) (Credentials, error) {
	token, err := s.issuer.GenerateToken(id, username)
	if err != nil {
		return Credentials{}, errors.ErrTokenGeneration
	}
	return Credentials{Token: token, UserID: id, Username: username}, nil
}
