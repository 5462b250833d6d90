package workflow_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Onebillie/onebillconvo-sub004/internal/workflow"
)

func TestValue_LookupDottedPath(t *testing.T) {
	v, err := workflow.ValueFromJSON([]byte(`{
		"parsed_data": {
			"electricity_bill": {"mprn": "10001234567"},
			"readings": [{"value": 12}, {"value": 34}]
		}
	}`))
	assert.NoError(t, err)

	mprn, ok := v.Lookup("parsed_data.electricity_bill.mprn")
	assert.True(t, ok)
	assert.Equal(t, "10001234567", mprn.Text())

	reading, ok := v.Lookup("parsed_data.readings.1.value")
	assert.True(t, ok)
	n, isNum := reading.AsNumber()
	assert.True(t, isNum)
	assert.Equal(t, 34.0, n)

	_, ok = v.Lookup("parsed_data.gas_bill.gprn")
	assert.False(t, ok)

	_, ok = v.Lookup("parsed_data.readings.9")
	assert.False(t, ok)
}

func TestValue_EqualAcrossNumericKinds(t *testing.T) {
	assert.True(t, workflow.NumberValue(42).Equal(workflow.StringValue("42")))
	assert.True(t, workflow.StringValue("0.5").Equal(workflow.NumberValue(0.5)))
	assert.False(t, workflow.StringValue("abc").Equal(workflow.NumberValue(1)))
	assert.True(t, workflow.StringValue("gas").Equal(workflow.StringValue("gas")))
	assert.False(t, workflow.BoolValue(true).Equal(workflow.StringValue("true")))
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "", workflow.NullValue.Text())
	assert.Equal(t, "true", workflow.BoolValue(true).Text())
	assert.Equal(t, "12345", workflow.NumberValue(12345).Text())
	assert.Equal(t, "0.85", workflow.NumberValue(0.85).Text())
	assert.Equal(t, "hello", workflow.StringValue("hello").Text())

	m := workflow.MapValue(map[string]workflow.Value{"a": workflow.NumberValue(1)})
	assert.JSONEq(t, `{"a":1}`, m.Text())
}

func TestValue_NumberParsesStrings(t *testing.T) {
	n, ok := workflow.StringValue(" 3.14 ").Number()
	assert.True(t, ok)
	assert.Equal(t, 3.14, n)

	_, ok = workflow.StringValue("not a number").Number()
	assert.False(t, ok)

	_, ok = workflow.BoolValue(true).Number()
	assert.False(t, ok)
}

func TestContext_SetCreatesIntermediateMaps(t *testing.T) {
	ctx := workflow.NewContext()
	ctx.Set("transformed_data.contact.phone", workflow.StringValue("353871234567"))

	v, ok := ctx.Lookup("transformed_data.contact.phone")
	assert.True(t, ok)
	assert.Equal(t, "353871234567", v.Text())
}

func TestContext_SetOverwritesScalarOnPath(t *testing.T) {
	ctx := workflow.NewContext()
	ctx.Set("a", workflow.StringValue("scalar"))
	ctx.Set("a.b", workflow.NumberValue(1))

	v, ok := ctx.Lookup("a.b")
	assert.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, 1.0, n)
}

func TestContext_SnapshotRoundTrip(t *testing.T) {
	ctx := workflow.NewContext()
	ctx.Set("attachment_id", workflow.StringValue("att-1"))
	ctx.Set("confidence_score", workflow.NumberValue(0.92))

	snapshot, err := ctx.Snapshot()
	assert.NoError(t, err)

	restored, err := workflow.ContextFromJSON(snapshot)
	assert.NoError(t, err)

	v, ok := restored.Lookup("confidence_score")
	assert.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, 0.92, n)
}

func TestValueFromJSON_Invalid(t *testing.T) {
	_, err := workflow.ValueFromJSON(json.RawMessage(`{not json`))
	assert.Error(t, err)
}
