package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const purchaseSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "PurchaseRequest",
	"type": "object",
	"properties": {
		"serviceID": { "type": "string", "minLength": 1 },
		"variation_code": { "type": "string" },
		"billersCode": { "type": "string" },
		"amount": { "type": "integer", "minimum": 1 },
		"phone": { "type": "string", "pattern": "^[0-9+]{7,15}$" }
	},
	"required": ["serviceID"]
}`

func TestNewContractMonitorFromBytes(t *testing.T) {
	t.Run("ValidSchema", func(t *testing.T) {
		cm, err := NewContractMonitorFromBytes([]byte(purchaseSchema))
		require.NoError(t, err)
		require.NotNil(t, cm)
	})

	t.Run("InvalidSchemaSyntax", func(t *testing.T) {
		_, err := NewContractMonitorFromBytes([]byte("{invalid_json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error loading or compiling schema")
	})
}

func TestNewContractMonitor_File(t *testing.T) {
	schemaFile := filepath.Join(t.TempDir(), "purchase_schema.json")
	require.NoError(t, os.WriteFile(schemaFile, []byte(purchaseSchema), 0o644))

	cm, err := NewContractMonitor(schemaFile)
	require.NoError(t, err)
	require.NotNil(t, cm)

	_, err = NewContractMonitor(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestContractMonitor_Validate(t *testing.T) {
	cm, err := NewContractMonitorFromBytes([]byte(purchaseSchema))
	require.NoError(t, err)

	t.Run("ValidPurchaseRequest", func(t *testing.T) {
		valid, errs, err := cm.Validate([]byte(`{
			"serviceID": "dstv",
			"variation_code": "dstv-padi",
			"billersCode": "1212121212",
			"amount": 4400,
			"phone": "08011111111"
		}`))
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Empty(t, errs)
	})

	t.Run("MissingServiceID", func(t *testing.T) {
		valid, errs, err := cm.Validate([]byte(`{"amount": 4400}`))
		require.NoError(t, err)
		assert.False(t, valid)
		require.NotEmpty(t, errs)
		assert.Contains(t, FormatErrors(errs), "serviceID")
	})

	t.Run("BadAmountAndPhone", func(t *testing.T) {
		valid, errs, err := cm.Validate([]byte(`{"serviceID": "dstv", "amount": 0, "phone": "abc"}`))
		require.NoError(t, err)
		assert.False(t, valid)
		assert.Len(t, errs, 2)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		valid, _, err := cm.Validate([]byte(`not json at all`))
		assert.False(t, valid)
		require.Error(t, err)
	})
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "", FormatErrors(nil))
	assert.Equal(t, "Validation errors: a; b", FormatErrors([]string{"a", "b"}))
}
