package nodes

import (
	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/eino-contrib/jsonschema"
	"github.com/getkin/kin-openapi/openapi3"
)

type field struct {
	name string
	typ  string // openapi3 type name, identical in JSON Schema
	desc string
	enum []string
}

// responseFormat is the JSON shape a structured call must answer with.
type responseFormat struct {
	openAPI *openapi3.Schema
	json    *jsonschema.Schema
}

func newResponseFormat(fields ...field) responseFormat {
	oa := &openapi3.Schema{Type: openapi3.TypeObject, Properties: openapi3.Schemas{}}
	js := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	for _, f := range fields {
		prop := &openapi3.Schema{Type: f.typ, Description: f.desc}
		jprop := &jsonschema.Schema{Type: f.typ, Description: f.desc}
		for _, e := range f.enum {
			prop.Enum = append(prop.Enum, e)
			jprop.Enum = append(jprop.Enum, e)
		}
		oa.Properties[f.name] = openapi3.NewSchemaRef("", prop)
		oa.Required = append(oa.Required, f.name)
		js.Properties.Set(f.name, jprop)
		js.Required = append(js.Required, f.name)
	}
	return responseFormat{openAPI: oa, json: js}
}

// options constrains a Gemini call to the format. The JSON schema only takes
// effect when an OpenAPI schema is set alongside it.
func (f responseFormat) options() []einomodel.Option {
	if f.openAPI == nil {
		return nil
	}
	return []einomodel.Option{
		gemini.WithResponseSchema(f.openAPI),
		gemini.WithResponseJSONSchema(f.json),
	}
}

var (
	trustFormat = newResponseFormat(
		field{name: "trust_level", typ: openapi3.TypeInteger, desc: "0 to 100"},
		field{name: "message", typ: openapi3.TypeString},
		field{name: "problem", typ: openapi3.TypeString},
	)
	plannerFormat = newResponseFormat(
		field{name: "problem", typ: openapi3.TypeString},
		field{name: "problem_solving", typ: openapi3.TypeString},
	)
	generatorFormat = newResponseFormat(
		field{name: "query", typ: openapi3.TypeString, desc: "one read-only SQLite SELECT statement"},
		field{name: "query_again", typ: openapi3.TypeBoolean},
		field{name: "next_query_description", typ: openapi3.TypeString},
	)
)

// validatorFormat limits next_step to the steps the route table knows.
func validatorFormat(steps []string) responseFormat {
	return newResponseFormat(
		field{name: "can_answer", typ: openapi3.TypeBoolean},
		field{name: "reasoning", typ: openapi3.TypeString},
		field{name: "next_step", typ: openapi3.TypeString, enum: steps},
	)
}
