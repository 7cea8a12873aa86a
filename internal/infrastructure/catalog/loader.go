// Package catalog carga el catálogo de estados de suscripción desde un archivo YAML o JSON.
package catalog

import (
	"fmt"

	"github.com/spf13/viper"

	domainsub "github.com/jhoicas/Facturacion-api/internal/domain/subscription"
)

// Load devuelve el catálogo por defecto si path está vacío; si no, lee y valida el archivo.
// El formato se deduce de la extensión (.yaml, .yml, .json).
func Load(path string) (*domainsub.Catalog, error) {
	if path == "" {
		return domainsub.DefaultCatalog(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("leer catálogo %s: %w", path, err)
	}
	var def domainsub.CatalogDefinition
	if err := v.Unmarshal(&def); err != nil {
		return nil, fmt.Errorf("decodificar catálogo %s: %w", path, err)
	}
	c, err := domainsub.NewCatalog(def)
	if err != nil {
		return nil, fmt.Errorf("catálogo %s: %w", path, err)
	}
	return c, nil
}
