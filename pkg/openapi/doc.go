// Package openapi describes the submission API of a form catalog as an
// OpenAPI 3 document built with kin-openapi.
package openapi
