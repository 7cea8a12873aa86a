package seed_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/seed"
)

func TestAdmin_NormalizaYHashea(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u, err := seed.Admin("  Root ", "Root@Example.com", "super-secreta", bcrypt.MinCost, now)
	require.NoError(t, err)
	assert.Equal(t, "root", u.Username)
	assert.Equal(t, "root@example.com", u.Email)
	assert.Equal(t, entity.RoleAdministrador, u.Role)
	assert.Empty(t, u.EmisorID)
	assert.True(t, u.IsActive())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("super-secreta")))
}

func TestAdmin_DatosInvalidos(t *testing.T) {
	cases := []struct{ name, user, email, pass string }{
		{"sin usuario", "", "a@b.c", "super-secreta"},
		{"email sin arroba", "root", "root", "super-secreta"},
		{"contraseña corta", "root", "a@b.c", "corta"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := seed.Admin(tc.user, tc.email, tc.pass, bcrypt.MinCost, time.Now())
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestWriteSQL(t *testing.T) {
	plans := seed.Plans()
	emisor := seed.DemoEmisor()
	emisor.RazonSocial = "O'Brien S.A."
	admin := &entity.User{ID: "u1", Username: "root", Email: "root@example.com", Name: "Administrador",
		Role: entity.RoleAdministrador, Status: entity.UserStatusActive, PasswordHash: "hash"}

	var b strings.Builder
	require.NoError(t, seed.WriteSQL(&b, plans, &emisor, admin))
	sql := b.String()

	assert.Equal(t, 1, strings.Count(sql, "INSERT INTO plans"))
	for _, p := range plans {
		assert.Contains(t, sql, "'"+p.Code+"'")
	}
	assert.Contains(t, sql, "'O''Brien S.A.'")
	assert.Contains(t, sql, "INSERT INTO users")
	assert.Contains(t, sql, "ON CONFLICT DO NOTHING")
}

func TestWriteSQL_SinAdmin(t *testing.T) {
	var b strings.Builder
	require.NoError(t, seed.WriteSQL(&b, seed.Plans(), nil, nil))
	assert.NotContains(t, b.String(), "INSERT INTO users")
	assert.NotContains(t, b.String(), "INSERT INTO emisores")
}
