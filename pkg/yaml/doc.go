// Package yaml wraps [github.com/goccy/go-yaml] with the decoder, encoder,
// schema validator and source-annotated errors used for configuration files
// and rule metadata headers.
package yaml
