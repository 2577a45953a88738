package api

import (
	"net/http"

	"github.com/vitalvas/apiecho/config"
	"github.com/vitalvas/apiecho/openapi"
)

// EchoPath is the route of the echo operation.
const EchoPath = "/v1/foo"

// SecuritySchemeName is the API key scheme declared in the document.
const SecuritySchemeName = "my_auth_key"

// Info is the document-level API description.
var Info = openapi.Info{
	Title:       "Example API",
	Description: "Really cool description",
	Version:     "1.0.0",
	License: &openapi.License{
		Name: "Apache-2.0",
		URL:  "https://www.apache.org/licenses/LICENSE-2.0.html",
	},
}

// record returns the zero record for the schema mode.
func record(mode config.SchemaMode) any {
	if mode == config.SchemaExplicit {
		return ExplicitEchoRecord{}
	}
	return EchoRecord{}
}

// echoHandler returns the echo handler decoding into the record for mode.
func echoHandler(mode config.SchemaMode) http.HandlerFunc {
	if mode == config.SchemaExplicit {
		return Echo[ExplicitEchoRecord]()
	}
	return Echo[EchoRecord]()
}

// NewSpec returns the document metadata of the service. Both schema modes
// produce a single component schema named EchoRecord.
func NewSpec(mode config.SchemaMode) *openapi.Spec {
	spec := openapi.NewSpec(Info).
		AddServer(openapi.Server{URL: "https://api.example.com"}).
		AddSecurityScheme(SecuritySchemeName, &openapi.SecurityScheme{
			Type:        "apiKey",
			Name:        "X-MY-KEY",
			In:          "header",
			Description: "The **Api key**.",
		})

	body := record(mode)
	op := spec.Op(http.MethodPost, EchoPath).
		OperationID("foo").
		Description("Example method").
		Tags("bar").
		Request(body)

	for code := http.StatusOK; code <= 225; code++ {
		op.Response(code, body).ResponseDescription(code, "successful operation")
	}

	return spec
}
