package openfoodfacts

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// productSchema lists what a collected payload must carry to be worth storing.
const productSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["code", "product_name"],
  "properties": {
    "code": {
      "anyOf": [
        {"type": "string", "pattern": "\\S"},
        {"type": "integer", "minimum": 0}
      ]
    },
    "product_name": {"type": "string", "pattern": "\\S"},
    "nutriments": {"type": "object"}
  }
}`

var compiledProductSchema = jsonschema.MustCompileString("openfoodfacts-product.schema.json", productSchema)

// ValidatePayload checks a decoded payload against the product schema.
// The payload must come from encoding/json (json.Number values are accepted).
func ValidatePayload(payload any) error {
	return compiledProductSchema.Validate(payload)
}
