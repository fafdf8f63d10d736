// Package web holds the HTML templates compiled into the binary.
package web

import "embed"

//go:embed all:templates
var Templates embed.FS
