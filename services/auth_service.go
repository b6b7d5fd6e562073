package services

import (
	"fmt"

	"whisperline/auth"
	"whisperline/errors"
	"whisperline/repositories"
)

type IAuthService interface {
	Signup(email, fullName, password string) (Token, repositories.User, error)
	Login(email, password string) (Token, repositories.User, error)
}

type AuthService struct {
	users  repositories.IUserRepository
	issuer auth.TokenIssuer
}

type Token string

func NewAuthService(users repositories.IUserRepository, issuer auth.TokenIssuer) IAuthService {
	return &AuthService{users: users, issuer: issuer}
}

func (s *AuthService) Signup(email, fullName, password string) (Token, repositories.User, error) {
	req := auth.SignupRequest{
		Email:    email,
		FullName: fullName,
		Password: password,
	}

	// Validate business rules before any expensive cryptographic work.
	// The generic sentinel keeps the failing field visible in the wrapped
	// cause instead of blaming the password for every rejection.
	if err := auth.ValidateSignup(req); err != nil {
		return "", repositories.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	// Hashing happens here so the repository never sees a plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", repositories.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.CreateUser(email, fullName, hashedPassword)
	if err != nil {
		return "", repositories.User{}, err // propagates ErrUserAlreadyExists
	}

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(email, password string) (Token, repositories.User, error) {
	// Generic error on every failure path to prevent user enumeration.
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", repositories.User{}, errors.ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return "", repositories.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}
