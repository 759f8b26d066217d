// Package monitor validates incoming purchase requests against a JSON
// schema before they reach the reconciliation engine.
package monitor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ContractMonitor validates request bodies against a JSON schema.
type ContractMonitor struct {
	schemaLoader gojsonschema.JSONLoader
}

// NewContractMonitor loads a schema from a file path.
func NewContractMonitor(schemaPath string) (*ContractMonitor, error) {
	return newMonitor(gojsonschema.NewReferenceLoader("file://" + schemaPath))
}

// NewContractMonitorFromBytes loads an embedded schema.
func NewContractMonitorFromBytes(schema []byte) (*ContractMonitor, error) {
	return newMonitor(gojsonschema.NewBytesLoader(schema))
}

func newMonitor(loader gojsonschema.JSONLoader) (*ContractMonitor, error) {
	if _, err := gojsonschema.NewSchema(loader); err != nil {
		return nil, fmt.Errorf("error loading or compiling schema: %w", err)
	}
	return &ContractMonitor{schemaLoader: loader}, nil
}

// Validate checks the request body against the schema. It returns true if
// valid, or false and a list of validation errors if invalid.
func (cm *ContractMonitor) Validate(requestBody []byte) (bool, []string, error) {
	documentLoader := gojsonschema.NewBytesLoader(requestBody)
	result, err := gojsonschema.Validate(cm.schemaLoader, documentLoader)
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}

	if result.Valid() {
		return true, nil, nil
	}

	var errors []string
	for _, desc := range result.Errors() {
		errors = append(errors, desc.String())
	}
	return false, errors, nil
}

// FormatErrors formats a slice of validation error strings into a single string.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
