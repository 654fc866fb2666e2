// Package config handles loading and validating RF panel configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The button catalog itself lives in a separate file (panel.catalog_file)
// and is loaded by the catalog package, not here.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Panel.CatalogFile)
package config
