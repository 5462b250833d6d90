package classifier

import "fmt"

// BuildUtilityDocPrompt returns the classification and extraction prompt for
// inbound utility documents. The rubric disambiguates the three target
// classes; keep it in sync with domain.ValidDocTypes.
func BuildUtilityDocPrompt(businessName string) string {
	ctx := ""
	if businessName != "" {
		ctx = fmt.Sprintf("The document was received by %q, an Irish utility switching service.\n\n", businessName)
	}

	return ctx + `You are a utility document classification assistant. Classify the provided document into exactly one of: "electricity", "gas", "meter".

Classification rubric:
- "electricity": an electricity bill or statement. Look for an MPRN (Meter Point Reference Number, 11 digits), kWh usage tables, day/night rates, PSO levy, or supplier names such as Electric Ireland, Energia, SSE Airtricity, Bord Gais Energy (electricity tariff).
- "gas": a natural gas bill or statement. Look for a GPRN (Gas Point Registration Number, up to 7 digits), gas units/m3 readings, carbon tax lines, or gas tariff tables.
- "meter": a photograph of a physical meter display (dials or digital readout) with no billing layout. The reading value on the display is the primary field.
A single bill may cover both electricity and gas; in that case classify by the dominant section but extract BOTH the electricity_bill and gas_bill field groups.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation.

The JSON object must have this shape:
{
  "classification": "electricity" | "gas" | "meter",
  "confidence": 0.0,
  "fields": {
    "phone": "",
    "customer_name": "",
    "address": "",
    "account_number": "",
    "billing_period": "",
    "electricity_bill": {
      "mprn": "",
      "meter_config_code": "",
      "demand_group_code": "",
      "supplier": "",
      "total_amount": 0
    },
    "gas_bill": {
      "gprn": "",
      "supplier": "",
      "total_amount": 0
    },
    "meter_reading": {
      "value": "",
      "unit": "",
      "register": ""
    }
  },
  "field_confidence": {}
}

Rules:
- Omit the "electricity_bill" key entirely when the document contains no electricity bill; likewise "gas_bill" and "meter_reading". Never emit an empty placeholder group.
- A meter reading printed ON a bill belongs to that bill; only emit "meter_reading" for a standalone reading (a meter photo, or a reading with no billing layout).
- "field_confidence" mirrors the emitted "fields" structure with float values between 0.0 and 1.0. Use 0.0 for fields you guessed.
- Use empty string for absent text fields and 0 for absent numbers within an emitted group.`
}
