package classifier_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Onebillie/onebillconvo-sub004/internal/classifier"
	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

func TestPrepareInput_EmptyFile(t *testing.T) {
	_, err := classifier.PrepareInput(port.ClassifyInput{ContentType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestPrepareInput_OversizedFile(t *testing.T) {
	input := port.ClassifyInput{
		FileBytes:   make([]byte, classifier.MaxFileBytes+1),
		ContentType: "image/png",
	}
	_, err := classifier.PrepareInput(input)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestPrepareInput_UnsupportedContentType(t *testing.T) {
	input := port.ClassifyInput{
		FileBytes:   []byte("hello"),
		ContentType: "text/html",
	}
	_, err := classifier.PrepareInput(input)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestPrepareInput_ImagePassthrough(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	prepared, err := classifier.PrepareInput(port.ClassifyInput{
		FileBytes:   raw,
		ContentType: "image/png",
	})
	assert.NoError(t, err)
	assert.Equal(t, raw, prepared.ImageBytes)
	assert.Empty(t, prepared.Text)
}

func TestExtractJSONObject_Bare(t *testing.T) {
	out := classifier.ExtractJSONObject(`{"classification":"gas"}`)
	assert.Equal(t, `{"classification":"gas"}`, out)
}

func TestExtractJSONObject_CodeFence(t *testing.T) {
	text := "```json\n{\"classification\":\"gas\"}\n```"
	out := classifier.ExtractJSONObject(text)
	assert.Equal(t, `{"classification":"gas"}`, out)
}

func TestExtractJSONObject_SurroundingCommentary(t *testing.T) {
	text := "Here is the result you asked for:\n{\"a\": {\"b\": 1}}\nLet me know if you need more."
	out := classifier.ExtractJSONObject(text)
	assert.Equal(t, `{"a": {"b": 1}}`, out)
}

func TestExtractJSONObject_BracesInsideStrings(t *testing.T) {
	text := `{"note": "weird } value {", "n": 2}`
	out := classifier.ExtractJSONObject(text)
	assert.Equal(t, text, out)
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	assert.Empty(t, classifier.ExtractJSONObject("sorry, I cannot read this document"))
}

func TestDecodeModelOutput_Valid(t *testing.T) {
	text := `{"classification":"electricity","confidence":0.92,"fields":{"mprn":"10001234567"},"field_confidence":{"mprn":0.95}}`
	out, err := classifier.DecodeModelOutput("openai", text, "gpt-4o")
	assert.NoError(t, err)
	assert.Equal(t, domain.DocTypeElectricity, out.Classification)
	assert.InDelta(t, 0.92, out.Confidence, 0.001)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
	assert.Empty(t, out.LowConfidenceFields)

	var fields map[string]string
	assert.NoError(t, json.Unmarshal(out.Fields, &fields))
	assert.Equal(t, "10001234567", fields["mprn"])
}

func TestDecodeModelOutput_InvalidClassification(t *testing.T) {
	text := `{"classification":"invoice","confidence":0.9}`
	_, err := classifier.DecodeModelOutput("openai", text, "gpt-4o")

	var outErr *classifier.OutputError
	assert.ErrorAs(t, err, &outErr)
	assert.Equal(t, "openai", outErr.Provider)
}

func TestDecodeModelOutput_UnknownNotPermitted(t *testing.T) {
	// "unknown" exists as a doc type but the model may not return it.
	text := `{"classification":"unknown","confidence":0.5}`
	var outErr *classifier.OutputError
	_, err := classifier.DecodeModelOutput("claude", text, "m")
	assert.ErrorAs(t, err, &outErr)
}

func TestDecodeModelOutput_Garbage(t *testing.T) {
	var outErr *classifier.OutputError
	_, err := classifier.DecodeModelOutput("openai", "no json here", "gpt-4o")
	assert.ErrorAs(t, err, &outErr)
}

func TestDecodeModelOutput_FlattensLowConfidenceFields(t *testing.T) {
	text := `{
		"classification":"gas",
		"confidence":0.88,
		"fields":{"gas_bill":{"gprn":"1234567"}},
		"field_confidence":{"gas_bill":{"gprn":0.4},"phone":0.9}
	}`
	out, err := classifier.DecodeModelOutput("openai", text, "gpt-4o")
	assert.NoError(t, err)
	assert.Equal(t, []string{"gas_bill.gprn"}, out.LowConfidenceFields)
}

func TestLowConfidenceFields_Threshold(t *testing.T) {
	conf := json.RawMessage(`{"a":0.7,"b":0.69,"nested":{"c":0.2,"d":0.99}}`)
	low := classifier.LowConfidenceFields(conf, 0.7)
	assert.ElementsMatch(t, []string{"b", "nested.c"}, low)
}
