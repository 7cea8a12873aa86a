package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims de un secreto de sesión. El secreto es opaco para el cliente: la autoridad sobre su
// validez es el almacén de credenciales (revocación, expiración), no solo la firma.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Params datos para firmar un secreto de sesión.
type Params struct {
	Secret    string
	Issuer    string
	TokenID   string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt *time.Time // nil = sin claim exp
}

// Generate firma un JWT HS256 con jti = TokenID y sub = UserID.
func Generate(p Params) (string, error) {
	if p.Secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if p.TokenID == "" || p.UserID == "" {
		return "", fmt.Errorf("jwt: token id y user id son obligatorios")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       p.TokenID,
			Issuer:   p.Issuer,
			Subject:  p.UserID,
			IssuedAt: jwt.NewNumericDate(p.IssuedAt),
		},
		UserID: p.UserID,
	}
	if p.ExpiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*p.ExpiresAt)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.Secret))
}

// Parse valida firma, emisor y exp (si existe) usando now como reloj.
func Parse(secret, issuer, tokenString string, now time.Time) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, fmt.Errorf("claims incompletos")
	}
	return claims, nil
}

// Fingerprint es el hash que se persiste en lugar del secreto.
func Fingerprint(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
