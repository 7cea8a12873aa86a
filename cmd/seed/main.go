// seed genera el script SQL con los datos de arranque: planes base, emisor de pruebas y,
// si BOOTSTRAP_ADMIN_PASSWORD está definido, el administrador inicial.
//
// Uso: go run ./cmd/seed [-demo-emisor] [-out migrations/002_seed.sql]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/seed"
	"github.com/jhoicas/Facturacion-api/pkg/config"
)

func main() {
	demo := flag.Bool("demo-emisor", false, "incluir el emisor de pruebas")
	outFlag := flag.String("out", "", "ruta del script (por defecto migrations/002_seed.sql del módulo)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	var admin *entity.User
	if cfg.Bootstrap.AdminPassword != "" {
		admin, err = seed.Admin(cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, bcrypt.DefaultCost, time.Now().UTC())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Administrador: %v\n", err)
			os.Exit(1)
		}
	}
	var emisor *entity.Emisor
	if *demo {
		e := seed.DemoEmisor()
		emisor = &e
	}

	outPath := *outFlag
	if outPath == "" {
		outPath = filepath.Join(findModuleRoot(), "migrations", "002_seed.sql")
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	plans := seed.Plans()
	if err := seed.WriteSQL(out, plans, emisor, admin); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d planes, emisor de pruebas=%t, administrador=%t\n", outPath, len(plans), emisor != nil, admin != nil)
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
