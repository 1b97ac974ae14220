// Package fs embeds the dashboard's HTML templates.
package fs

import "embed"

//go:embed templates
var Templates embed.FS
