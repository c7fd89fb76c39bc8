package webassets

import "embed"

// FS contains embedded web assets from this directory.

//go:embed dashboard-client.js index.html dashboard.html
var FS embed.FS
