// Package config defines the application configuration structure and loads
// it from environment variables and an optional config file.
//
// Configuration values come from TASKHIVE_-prefixed environment variables
// first, then from config.yaml in the working directory. The loaded struct is
// validated before use; the server refuses to start on invalid configuration.
package config
