package normalize

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed schemas/order.schema.json
	orderSchemaJSON []byte
	//go:embed schemas/trade.schema.json
	tradeSchemaJSON []byte

	orderSchema = mustCompileSchema("order.schema.json", orderSchemaJSON)
	tradeSchema = mustCompileSchema("trade.schema.json", tradeSchemaJSON)
)

func compileSchema(name string, raw []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

func mustCompileSchema(name string, raw []byte) *jsonschema.Schema {
	s, err := compileSchema(name, raw)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return s
}

// validatePayload checks a raw data object against schema. Numbers are decoded as
// json.Number so that large ids and prices keep their text.
func validatePayload(schema *jsonschema.Schema, raw string) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}
