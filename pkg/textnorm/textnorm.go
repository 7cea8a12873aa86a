// Package textnorm normaliza identificadores de usuario antes de compararlos o persistirlos.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Identifier aplica NFKC, plegado de mayúsculas y recorte de espacios.
// "  JOSÉ@Example.com " y "josé@example.com" producen el mismo valor.
func Identifier(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return norm.NFKC.String(folder.String(norm.NFKC.String(s)))
}
