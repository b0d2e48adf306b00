package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medadmin/m/domain"
)

type authClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (p *Provider) generateToken(s domain.Session, now time.Time) (string, error) {
	claims := authClaims{
		UserID: s.UserID,
		Email:  s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) parseToken(tokenString string) (domain.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Session{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*authClaims)
	if !ok || claims.ID == "" {
		return domain.Session{}, errors.New("invalid token claims")
	}
	return domain.Session{ID: claims.ID, UserID: claims.UserID, Email: claims.Email}, nil
}
