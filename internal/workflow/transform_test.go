package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/workflow"
)

func TestApplyTransform(t *testing.T) {
	out, err := workflow.ApplyTransform("uppercase", "gas")
	assert.NoError(t, err)
	assert.Equal(t, "GAS", out)

	out, err = workflow.ApplyTransform("lowercase", "MPRN")
	assert.NoError(t, err)
	assert.Equal(t, "mprn", out)

	out, err = workflow.ApplyTransform("trim", "  10001234567  ")
	assert.NoError(t, err)
	assert.Equal(t, "10001234567", out)

	out, err = workflow.ApplyTransform("", "unchanged")
	assert.NoError(t, err)
	assert.Equal(t, "unchanged", out)

	_, err = workflow.ApplyTransform("rot13", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidStepConfig)
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "353871234567", workflow.FormatPhone("+353 87 123 4567"))
	assert.Equal(t, "0871234567", workflow.FormatPhone("(087) 123-4567"))
	assert.Equal(t, "", workflow.FormatPhone("no digits here"))
}

func TestApplyMappings_WritesIntoTransformedData(t *testing.T) {
	ctx := workflow.NewContext()
	ctx.Set("parsed_data.phone", workflow.StringValue("+353 87 123 4567"))
	ctx.Set("parsed_data.supplier", workflow.StringValue("  Volt Co  "))

	err := workflow.ApplyMappings(&workflow.TransformConfig{
		Mappings: []workflow.Mapping{
			{Source: "parsed_data.phone", Output: "phone", Transform: "format_phone"},
			{Source: "parsed_data.supplier", Output: "supplier", Transform: "trim"},
		},
	}, ctx)
	assert.NoError(t, err)

	phone, ok := ctx.Lookup("transformed_data.phone")
	assert.True(t, ok)
	assert.Equal(t, "353871234567", phone.Text())

	supplier, _ := ctx.Lookup("transformed_data.supplier")
	assert.Equal(t, "Volt Co", supplier.Text())

	// The source namespace is untouched.
	original, _ := ctx.Lookup("parsed_data.phone")
	assert.Equal(t, "+353 87 123 4567", original.Text())
}

func TestApplyMappings_MissingSourceMapsToEmpty(t *testing.T) {
	ctx := workflow.NewContext()
	err := workflow.ApplyMappings(&workflow.TransformConfig{
		Mappings: []workflow.Mapping{
			{Source: "parsed_data.absent", Output: "value"},
		},
	}, ctx)
	assert.NoError(t, err)

	v, ok := ctx.Lookup("transformed_data.value")
	assert.True(t, ok)
	assert.Equal(t, "", v.Text())
}

func TestApplyMappings_RequiresSourceAndOutput(t *testing.T) {
	err := workflow.ApplyMappings(&workflow.TransformConfig{
		Mappings: []workflow.Mapping{{Source: "", Output: "x"}},
	}, workflow.NewContext())
	assert.ErrorIs(t, err, domain.ErrInvalidStepConfig)
}

func TestResolveTemplate(t *testing.T) {
	ctx := workflow.NewContext()
	ctx.Set("attachment_id", workflow.StringValue("att-1"))
	ctx.Set("confidence_score", workflow.NumberValue(0.92))

	out := workflow.ResolveTemplate("att={{attachment_id}} conf={{ confidence_score }} missing={{nope}}", ctx)
	assert.Equal(t, "att=att-1 conf=0.92 missing=", out)
}

func TestResolveTemplateMap(t *testing.T) {
	ctx := workflow.NewContext()
	ctx.Set("token", workflow.StringValue("abc123"))

	out := workflow.ResolveTemplateMap(map[string]string{
		"Authorization": "Bearer {{token}}",
		"Accept":        "application/json",
	}, ctx)
	assert.Equal(t, "Bearer abc123", out["Authorization"])
	assert.Equal(t, "application/json", out["Accept"])

	assert.Nil(t, workflow.ResolveTemplateMap(nil, ctx))
}
