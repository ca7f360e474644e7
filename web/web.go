// Package web embeds the browser assets for playground widgets.
package web

import "embed"

//go:embed static
var Assets embed.FS
