package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"transpo/internal/domain"
	"transpo/internal/domain/models"
	"transpo/internal/repositories"
	"transpo/internal/utils"
)

const tokenTTL = 24 * time.Hour

// Claims is the JWT payload. Subject carries the caller identity.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Users     repositories.UserStore
	Secret    []byte
	RequestID string
}

var errBadLogin = domain.UnauthorizedError{Msg: "invalid email/username or password"}

// Login checks the bcrypt hash and issues an HS256 token.
func (s AuthService) Login(ctx context.Context, login, password string) (string, models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", models.User{}, domain.ValidationError{Msg: "email and password are required"}
	}

	u, err := s.Users.FindByLogin(ctx, login)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", models.User{}, errBadLogin
	}
	if err != nil {
		return "", models.User{}, domain.InternalError{Msg: "could not load user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, errBadLogin
	}
	if u.Status != "" && !strings.EqualFold(u.Status, "active") {
		return "", models.User{}, domain.UnauthorizedError{Msg: "account is not active"}
	}
	role, err := domain.ParseRole(u.Role)
	if err != nil {
		return "", models.User{}, domain.UnauthorizedError{Msg: "account has no usable role"}
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityOf(u),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", models.User{}, domain.InternalError{Msg: "could not sign token", Err: err}
	}

	utils.LogEvent(s.RequestID, "auth", "login", "user="+identityOf(u)+" role="+role.String())
	return signed, u, nil
}

// ParseToken validates a bearer token and returns the caller it names.
func (s AuthService) ParseToken(raw string) (domain.Caller, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Caller{}, domain.UnauthorizedError{Msg: "invalid token"}
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Caller{}, domain.UnauthorizedError{Msg: "invalid token role"}
	}
	return domain.Caller{Identity: claims.Subject, Role: role}, nil
}

func identityOf(u models.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
