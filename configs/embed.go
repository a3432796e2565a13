// Package configs provides embedded configuration templates for
// watchpost.
//
// Templates are embedded at build time with //go:embed so they ship in
// every distribution. They are written out by:
//   - `watchpost config init` → ~/.config/watchpost/config.yaml
//   - `watchpost config init --project` → .watchpost.yaml
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config (~/.config/watchpost/config.yaml)
//  3. Project config (.watchpost.yaml)
//  4. Environment variables (WATCHPOST_*)
package configs

import _ "embed"

// UserConfigTemplate is the machine-level configuration template:
// provider selection, SMTP/IMAP accounts, storage and logging.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the per-tree configuration template:
// watched directories, debounce/cooldown tuning, ignore globs. Lives
// next to the watched directories as .watchpost.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
