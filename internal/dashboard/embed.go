// Package dashboard holds the templates and stylesheet of the HTML dashboard.
package dashboard

import "embed"

//go:embed templates/*
var Templates embed.FS

//go:embed assets/*
var Assets embed.FS
