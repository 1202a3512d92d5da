package config_test

import (
	"fmt"

	"github.com/ajitpratap0/importdata/pkg/config"
)

// ExampleDefaultImportConfig demonstrates the defaults of an import run.
func ExampleDefaultImportConfig() {
	cfg := config.DefaultImportConfig()

	fmt.Printf("Schema mode: %s\n", cfg.Table.SchemaMode())
	fmt.Printf("Temporary: %t\n", cfg.Table.Temporary)
	fmt.Printf("Append: %t\n", cfg.Table.Append)
	fmt.Printf("Validate: %v\n", cfg.Validate())

	cfg.Table.Name = "stats"
	fmt.Printf("Validate: %v\n", cfg.Validate())

	// Output:
	// Schema mode: two-pass
	// Temporary: false
	// Append: false
	// Validate: table name is required
	// Validate: <nil>
}
