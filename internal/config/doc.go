// Package config loads the tracker server configuration.
//
// Sources, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file, e.g. configs/dextracker.yaml
//  3. A .env file in the working directory, if present
//  4. Environment variables (PORT, DEXTRACKER_*)
//
// Example file:
//
//	server:
//	  port: 8080
//	  static_dir: "static"
//	store:
//	  backend: "file"        # file, sqlite
//	  path: "data/caught.json"
//	logging:
//	  level: "info"          # debug, info, warn, error
//	  format: "text"         # json, text
package config
