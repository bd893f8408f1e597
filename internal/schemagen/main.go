// Command schemagen writes the JSON schema of a rulekit configuration kind.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/macropower/rulekit/api/v1beta1/configs"
	"github.com/macropower/rulekit/api/v1beta1/projectconfigs"
	"github.com/macropower/rulekit/pkg/yaml"
)

const modulePath = "github.com/macropower/rulekit"

var (
	kind    = flag.String("kind", configs.Kind, "Kind to generate the schema for")
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
)

func main() {
	flag.Parse()

	var gen *yaml.SchemaGenerator

	switch *kind {
	case configs.Kind:
		gen = yaml.NewSchemaGenerator(configs.New(),
			modulePath+"/api/v1beta1",
			modulePath+"/api/v1beta1/configs",
			modulePath+"/pkg/mcp",
			modulePath+"/pkg/store",
		)
	case projectconfigs.Kind:
		gen = yaml.NewSchemaGenerator(projectconfigs.New(),
			modulePath+"/api/v1beta1",
			modulePath+"/api/v1beta1/projectconfigs",
			modulePath+"/pkg/store",
		)
	default:
		log.Fatalf("unknown kind %q", *kind)
	}

	data, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, data, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
