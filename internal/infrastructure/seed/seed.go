// Package seed contiene los datos de arranque: planes base, un emisor de pruebas y el
// administrador inicial. Lo usan el modo de almacenamiento en memoria y cmd/seed (SQL).
package seed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/textnorm"
)

// DemoEmisorID identificador fijo del emisor de pruebas.
const DemoEmisorID = "00000000-0000-0000-0000-0000000000e1"

// Plans devuelve los planes base con IDs estables para que el SQL sea idempotente.
func Plans() []entity.Plan {
	return []entity.Plan{
		{ID: "00000000-0000-0000-0000-0000000000a1", Code: "MENSUAL", Name: "Plan mensual", PeriodMonths: 1, Price: decimal.RequireFromString("25000"), Active: true},
		{ID: "00000000-0000-0000-0000-0000000000a2", Code: "TRIMESTRAL", Name: "Plan trimestral", PeriodMonths: 3, Price: decimal.RequireFromString("70000"), Active: true},
		{ID: "00000000-0000-0000-0000-0000000000a3", Code: "ANUAL", Name: "Plan anual", PeriodMonths: 12, Price: decimal.RequireFromString("250000"), Active: true},
	}
}

// DemoEmisor emisor disponible en desarrollo.
func DemoEmisor() entity.Emisor {
	return entity.Emisor{ID: DemoEmisorID, RUC: "0999999999001", RazonSocial: "Emisor de pruebas", Status: "active"}
}

// Admin construye el administrador inicial con la contraseña ya hasheada.
func Admin(username, email, password string, cost int, now time.Time) (*entity.User, error) {
	username = textnorm.Identifier(username)
	email = textnorm.Identifier(email)
	if username == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("seed: username y email válidos son obligatorios: %w", domain.ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("seed: la contraseña debe tener al menos 8 caracteres: %w", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("seed: hash password: %w", err)
	}
	return &entity.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Name:         "Administrador",
		Role:         entity.RoleAdministrador,
		Status:       entity.UserStatusActive,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// WriteSQL escribe los INSERT de planes, emisor de pruebas y administrador (si no es nil).
// Los planes y el emisor se actualizan con ON CONFLICT; el administrador se omite si ya existe.
func WriteSQL(w io.Writer, plans []entity.Plan, emisor *entity.Emisor, admin *entity.User) error {
	var b strings.Builder
	b.WriteString("-- Datos de arranque generados por cmd/seed\n\n")

	if len(plans) > 0 {
		b.WriteString("INSERT INTO plans (id, code, name, period_months, period_days, price, active) VALUES\n")
		for i, p := range plans {
			sep := ","
			if i == len(plans)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', %d, %d, %s, %t)%s\n",
				p.ID, escapeSQL(p.Code), escapeSQL(p.Name), p.PeriodMonths, p.PeriodDays, p.Price.String(), p.Active, sep)
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, active = EXCLUDED.active;\n\n")
	}

	if emisor != nil {
		fmt.Fprintf(&b, "INSERT INTO emisores (id, ruc, razon_social, status) VALUES ('%s', '%s', '%s', '%s')\n",
			emisor.ID, escapeSQL(emisor.RUC), escapeSQL(emisor.RazonSocial), escapeSQL(emisor.Status))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET razon_social = EXCLUDED.razon_social;\n\n")
	}

	if admin != nil {
		fmt.Fprintf(&b, "INSERT INTO users (id, username, email, name, role, status, password_hash) VALUES ('%s', '%s', '%s', '%s', '%s', '%s', '%s')\n",
			admin.ID, escapeSQL(admin.Username), escapeSQL(admin.Email), escapeSQL(admin.Name),
			admin.Role, admin.Status, escapeSQL(admin.PasswordHash))
		b.WriteString("ON CONFLICT DO NOTHING;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
