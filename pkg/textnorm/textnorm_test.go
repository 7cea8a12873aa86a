package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-api/pkg/textnorm"
)

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "josé@example.com", textnorm.Identifier("  JOSÉ@Example.com "))
	// "e" + acento combinante se compone igual que "é" precompuesta.
	assert.Equal(t, textnorm.Identifier("jos\u00e9"), textnorm.Identifier("jose\u0301"))
	assert.Equal(t, "", textnorm.Identifier("   "))
}
