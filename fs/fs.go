package appfs

import "embed"

// FS embeds runtime assets, currently only the goose migrations.
//go:embed migrations
var FS embed.FS
