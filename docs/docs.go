// Package docs carries the OpenAPI document served by the run-history API.
package docs

import _ "embed"

//go:embed swagger.json
var OpenAPI []byte
