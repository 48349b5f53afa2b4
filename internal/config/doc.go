// Package config holds the typed processing settings and the application config
// file they are loaded from.
//
// A Config is read once at startup from the path in PHOTO_TOUCHUP_CONFIG. The file
// is JSON unless its extension is .toml. Fields missing from the file keep their
// built-in defaults, and a missing file means "all defaults".
//
// Settings are validated once, at the boundary where they enter the program
// (config load, tool call, CLI). The processing packages trust them afterwards.
package config
