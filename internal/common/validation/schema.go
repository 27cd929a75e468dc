package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// AssessmentSchema describes the body of an assessment submission.
const AssessmentSchema = `{
	"type": "object",
	"required": ["gender", "answers"],
	"additionalProperties": false,
	"properties": {
		"gender": {"type": "string", "minLength": 1, "maxLength": 16},
		"answers": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": false,
			"patternProperties": {
				"^[0-9]+$": {"type": "integer", "minimum": 0}
			}
		},
		"contact": {"$ref": "#/definitions/contact"}
	},
	"definitions": {
		"contact": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"name": {"type": "string", "maxLength": 120},
				"age": {"type": "string", "maxLength": 16},
				"email": {"type": "string", "maxLength": 254},
				"phone": {"type": "string", "maxLength": 32}
			}
		}
	}
}`

// ContactSchema describes the body of a contact capture.
const ContactSchema = `{
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 120},
		"age": {"type": "string", "maxLength": 16},
		"email": {"type": "string", "maxLength": 254},
		"phone": {"type": "string", "maxLength": 32}
	}
}`

var (
	assessmentSchema = mustSchema(AssessmentSchema)
	contactSchema    = mustSchema(ContactSchema)

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{9,}$`)
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("validation: invalid schema: %v", err))
	}
	return schema
}

// ValidateAssessment checks a raw assessment body. The error is non-nil only
// when the body is not JSON at all.
func ValidateAssessment(body []byte) (*ValidationResult, error) {
	return validate(assessmentSchema, body)
}

// ValidateContact checks a raw contact body, including email and phone shape
// for non-empty values.
func ValidateContact(body []byte) (*ValidationResult, error) {
	result, err := validate(contactSchema, body)
	if err != nil || !result.Valid {
		return result, err
	}

	var fields struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if errs := ContactFieldErrors(fields.Email, fields.Phone); len(errs) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, errs...)
	}
	return result, nil
}

func validate(schema *gojsonschema.Schema, body []byte) (*ValidationResult, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() != "required" {
		return field
	}
	prop, ok := desc.Details()["property"].(string)
	if !ok {
		return field
	}
	if field == "(root)" {
		return prop
	}
	return field + "." + prop
}

// ContactFieldErrors checks email and phone formats. Empty values pass.
func ContactFieldErrors(email, phone string) []ValidationError {
	var errs []ValidationError
	if email = strings.TrimSpace(email); email != "" && !ValidateEmail(email) {
		errs = append(errs, ValidationError{Field: "email", Message: "invalid email address", Code: "FORMAT"})
	}
	if phone = strings.TrimSpace(phone); phone != "" && !ValidatePhone(phone) {
		errs = append(errs, ValidationError{Field: "phone", Message: "invalid phone number", Code: "FORMAT"})
	}
	return errs
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone validates basic phone number format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
