// Package web holds the static assets served by the API process.
package web

import _ "embed"

//go:embed pages/index.html
var IndexHTML []byte

//go:embed openapi.yaml
var OpenAPI []byte
