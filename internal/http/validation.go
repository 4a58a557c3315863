package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

const schemaCredentials = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["email", "password"],
  "properties": {
    "email": { "type": "string", "format": "email" },
    "password": { "type": "string", "minLength": 6 }
  },
  "additionalProperties": false
}`

const schemaContactForm = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "email", "phone", "address", "payment_method"],
  "properties": {
    "name": { "type": "string", "minLength": 2 },
    "email": { "type": "string", "format": "email" },
    "phone": { "type": "string", "minLength": 10 },
    "address": { "type": "string", "minLength": 10 },
    "payment_method": { "type": "string", "enum": ["COD"] }
  },
  "additionalProperties": false
}`

const schemaAddItem = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["product_id"],
  "properties": {
    "product_id": { "type": "string", "minLength": 1 },
    "quantity": { "type": "integer", "minimum": 1, "maximum": 99 }
  },
  "additionalProperties": false
}`

const schemaDescribe = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "category"],
  "properties": {
    "name": { "type": "string", "minLength": 3 },
    "category": { "type": "string", "minLength": 1 }
  },
  "additionalProperties": false
}`

var (
	errInvalidJSON = errors.New("invalid JSON body")
	errInvalidForm = errors.New("invalid form body")
)

var (
	credentialsSchema = mustSchema(schemaCredentials)
	contactFormSchema = mustSchema(schemaContactForm)
	addItemSchema     = mustSchema(schemaAddItem)
	describeSchema    = mustSchema(schemaDescribe)
)

var fieldMessages = map[string]string{
	"email":          "Please enter a valid email.",
	"password":       "Password must be at least 6 characters.",
	"name":           "Name is too short.",
	"phone":          "Please enter a valid phone number.",
	"address":        "Please enter a valid address.",
	"payment_method": "You need to select a payment method.",
	"product_id":     "product_id is required",
	"quantity":       "quantity must be between 1 and 99",
	"category":       "Please select a category.",
}

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}

// decodeValidated reads the JSON body, checks it against schema and decodes
// it into dst. Schema violations come back as a *domain.ValidationError.
func decodeValidated(r *http.Request, schema *gojsonschema.Schema, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(body) {
		return errInvalidJSON
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		verr := &domain.ValidationError{}
		for _, e := range result.Errors() {
			field := fieldName(e)
			msg, ok := fieldMessages[field]
			if !ok {
				msg = e.Description()
			}
			verr.Add(field, msg)
		}
		return verr
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

func fieldName(e gojsonschema.ResultError) string {
	if e.Type() == "required" || e.Type() == "additional_property_not_allowed" {
		if prop, ok := e.Details()["property"].(string); ok {
			return prop
		}
	}
	field := e.Field()
	if field == "(root)" {
		return "body"
	}
	return strings.TrimPrefix(field, "(root).")
}

// safeRedirect keeps redirects on this site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "/"
	}
	return target
}
