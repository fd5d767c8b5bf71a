// Package config loads, normalizes, and validates reci configuration data.
//
// It supplies defaults, expands user paths, reads TOML files and applies the
// RECI_GET_RECIPES_URL and RECI_POST_RECIPE_URL environment overrides, so the
// terminal client, the one-shot commands and the development backend all see
// the same settings.
package config
