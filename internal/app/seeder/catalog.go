// Package seeder loads reference catalog files and writes their products
// into the shared catalog.
package seeder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// catalogFile is the on-disk layout:
//
//	products:
//	  - brand: Absolut
//	    variant: Citron
//	    category: Vodka
//	    abv: 40
//	    size_ml: 750
type catalogFile struct {
	Products []productEntry `yaml:"products"`
}

type productEntry struct {
	Brand          string   `yaml:"brand"`
	Category       string   `yaml:"category"`
	Subcategory    *string  `yaml:"subcategory"`
	Variant        *string  `yaml:"variant"`
	Region         *string  `yaml:"region"`
	Country        *string  `yaml:"country"`
	Style          *string  `yaml:"style"`
	ABV            *float64 `yaml:"abv"`
	SizeML         *int     `yaml:"size_ml"`
	Unit           *string  `yaml:"unit"`
	Notes          *string  `yaml:"notes"`
	IsDiscontinued bool     `yaml:"discontinued"`
}

// LoadCatalogFile reads and validates the catalog at path.
func LoadCatalogFile(path string) ([]domain.RefProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes a catalog document. Unknown keys are rejected so a
// typo does not silently drop a field. Every invalid entry is reported.
func LoadCatalog(r io.Reader) ([]domain.RefProduct, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var errs []domain.FieldError
	products := make([]domain.RefProduct, 0, len(file.Products))
	for i, e := range file.Products {
		field := fmt.Sprintf("products[%d]", i)
		if fe := e.validate(field); len(fe) > 0 {
			errs = append(errs, fe...)
			continue
		}
		products = append(products, e.toDomain())
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return products, nil
}

func (e productEntry) validate(field string) []domain.FieldError {
	var errs []domain.FieldError
	if strings.TrimSpace(e.Brand) == "" {
		errs = append(errs, domain.FieldError{Field: field + ".brand", Message: "required"})
	}
	if strings.TrimSpace(e.Category) == "" {
		errs = append(errs, domain.FieldError{Field: field + ".category", Message: "required"})
	}
	if e.ABV != nil && (*e.ABV < 0 || *e.ABV > 100) {
		errs = append(errs, domain.FieldError{Field: field + ".abv", Message: "must be between 0 and 100"})
	}
	if e.SizeML != nil && *e.SizeML <= 0 {
		errs = append(errs, domain.FieldError{Field: field + ".size_ml", Message: "must be positive"})
	}
	return errs
}

func (e productEntry) toDomain() domain.RefProduct {
	return domain.RefProduct{
		ID:             uuid.New(),
		Brand:          strings.TrimSpace(e.Brand),
		Category:       strings.TrimSpace(e.Category),
		Subcategory:    trimmed(e.Subcategory),
		Variant:        trimmed(e.Variant),
		Region:         trimmed(e.Region),
		Country:        trimmed(e.Country),
		Style:          trimmed(e.Style),
		ABV:            e.ABV,
		SizeML:         e.SizeML,
		Unit:           trimmed(e.Unit),
		Notes:          e.Notes,
		IsDiscontinued: e.IsDiscontinued,
	}
}

// trimmed drops blank optional strings.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
