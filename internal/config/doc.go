// Package config loads krark's run options and notification targets.
//
// Values are resolved in this order, highest first:
//
//  1. CLI flags (--max-failed-shown, --color, ...)
//  2. KRARK_* environment variables
//  3. The YAML config file (--config, ./.krark.yaml, ~/.config/krark/config.yaml)
//  4. DefaultOptions
//
// The file is expanded with envsubst before parsing, so ${VAR} references work
// anywhere in it (typically in notification URLs).
package config
