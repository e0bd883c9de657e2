// Package config loads docindex settings from a TOML file.
//
// Every key is optional. Keys missing from the file keep the values from
// Default, so a file only needs to name what it changes:
//
//	[source]
//	patterns = ["docs/**/*.md", "notes/*.txt"]
//
//	[commit]
//	batch_size = 50
//	pacing = "100ms"
package config
