package httpapi

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

//go:generate swag init -g internal/httpapi/swagger.go -o docs/swagger

// @title Web Diff Engine API
// @version 0.1
// @description Comparison, merge, regression test-runner and report-generation API over a project's capture tree.
// @BasePath /

// swaggerHandler serves the swagger UI against /swagger/doc.json.
// `go generate ./...` writes the generated docs into docs/swagger; no
// package in this repository imports docs/swagger, so no generated doc is
// registered with swag's global registry.
func swaggerHandler() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))
}
