// Package config provides configuration management for rgaascan.
//
// Configuration comes from three sources, in increasing precedence:
// built-in defaults (NewConfig), an optional YAML overrides file
// (.rgaascan), and CLI flags. The resulting Config struct is passed
// through the application via dependency injection rather than global
// state.
package config
