package main

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sznuper/krark/internal/config"
)

const envPrefix = "KRARK"

func flagName(yamlTag string) string {
	return strings.ReplaceAll(yamlTag, "_", "-")
}

// registerOptionFlags adds a persistent --flag for every field in config.Options,
// deriving the flag name from the yaml struct tag (snake_case → kebab-case).
func registerOptionFlags(cmd *cobra.Command) {
	t := reflect.TypeOf(config.Options{})
	for i := range t.NumField() {
		f := t.Field(i)
		yamlTag := f.Tag.Get("yaml")
		usage := "override " + yamlTag + " (env " + envPrefix + "_" + strings.ToUpper(yamlTag) + ")"
		switch f.Type.Kind() {
		case reflect.Int:
			cmd.PersistentFlags().Int(flagName(yamlTag), 0, usage)
		default:
			cmd.PersistentFlags().String(flagName(yamlTag), "", usage)
		}
	}
}

// applyOptionFlags overlays KRARK_* environment variables and then explicitly
// set CLI flags onto the config, and validates the result. Integer options
// that do not parse are an error rather than zero.
func applyOptionFlags(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	t := reflect.TypeOf(cfg.Options)
	rv := reflect.ValueOf(&cfg.Options).Elem()
	for i := range t.NumField() {
		key := t.Field(i).Tag.Get("yaml")
		if flag := cmd.Flags().Lookup(flagName(key)); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("binding flag %s: %w", flag.Name, err)
			}
		}
		if !v.IsSet(key) {
			continue
		}

		switch field := rv.Field(i); field.Kind() {
		case reflect.Int:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			field.SetInt(int64(n))
		case reflect.String:
			field.SetString(v.GetString(key))
		}
	}

	return cfg.Validate()
}
