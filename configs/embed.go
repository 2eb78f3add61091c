// Package configs embeds the commented configuration template written by
// 'docqa config init'.
package configs

import _ "embed"

// ConfigTemplate documents every setting with its default value. It is
// valid for both the user config and a project .docqa.yaml.
//
//go:embed config.example.yaml
var ConfigTemplate string
