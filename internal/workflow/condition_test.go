package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/workflow"
)

func conditionContext() *workflow.Context {
	ctx := workflow.NewContext()
	ctx.Set("document_type", workflow.StringValue("electricity"))
	ctx.Set("confidence_score", workflow.NumberValue(0.85))
	ctx.Set("parsed_data.electricity_bill.mprn", workflow.StringValue("10001234567"))
	return ctx
}

func TestEvaluateConditions_Equals(t *testing.T) {
	ok, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "document_type", Operator: "equals", Value: "electricity"},
		},
	}, conditionContext())
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateConditions_NotEqualsMissingField(t *testing.T) {
	ok, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "no.such.field", Operator: "not_equals", Value: "x"},
		},
	}, conditionContext())
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateConditions_NumericComparisons(t *testing.T) {
	ctx := conditionContext()

	ok, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "confidence_score", Operator: "greater_than", Value: 0.7},
		},
	}, ctx)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "confidence_score", Operator: "less_than", Value: 0.7},
		},
	}, ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateConditions_ContainsAndExists(t *testing.T) {
	ctx := conditionContext()

	ok, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "parsed_data.electricity_bill.mprn", Operator: "contains", Value: "1234"},
			{Field: "parsed_data.electricity_bill.mprn", Operator: "exists"},
			{Field: "parsed_data.gas_bill", Operator: "not_exists"},
		},
	}, ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateConditions_AndShortCircuits(t *testing.T) {
	ok, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "document_type", Operator: "equals", Value: "gas"},
			{Field: "confidence_score", Operator: "greater_than", Value: 0.5},
		},
		Logic: "AND",
	}, conditionContext())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateConditions_OrLogic(t *testing.T) {
	ok, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "document_type", Operator: "equals", Value: "gas"},
			{Field: "document_type", Operator: "equals", Value: "electricity"},
		},
		Logic: "or",
	}, conditionContext())
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateConditions_EmptyListIsTrue(t *testing.T) {
	ok, err := workflow.EvaluateConditions(&workflow.ConditionConfig{}, conditionContext())
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateConditions_UnknownOperator(t *testing.T) {
	_, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "document_type", Operator: "matches_regex", Value: ".*"},
		},
	}, conditionContext())
	assert.ErrorIs(t, err, domain.ErrInvalidStepConfig)
}

func TestEvaluateConditions_UnknownLogic(t *testing.T) {
	_, err := workflow.EvaluateConditions(&workflow.ConditionConfig{
		Conditions: []workflow.Condition{
			{Field: "document_type", Operator: "exists"},
		},
		Logic: "XOR",
	}, conditionContext())
	assert.ErrorIs(t, err, domain.ErrInvalidStepConfig)
}
