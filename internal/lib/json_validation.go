package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"
)

// ValidateJSON validates a JSON raw message against a given JSON schema.
// It returns a list of validation errors if the JSON is invalid.
func ValidateJSON(content json.RawMessage, schemaString string) ([]jsonschema.KeyError, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(schemaString), rs); err != nil {
		return nil, err
	}

	return rs.ValidateBytes(context.Background(), content)
}

// ValidateRequest validates a request body and folds schema violations into a
// single InvalidArgument error.
func ValidateRequest(content []byte, schemaString string) error {
	if len(content) == 0 {
		return InvalidArgumentError("request body is required")
	}

	keyErrors, err := ValidateJSON(content, schemaString)
	if err != nil {
		return InvalidArgumentError("request body is not valid JSON")
	}
	if len(keyErrors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(keyErrors))
	for _, keyError := range keyErrors {
		path := strings.TrimPrefix(keyError.PropertyPath, "/")
		if path == "" {
			messages = append(messages, keyError.Message)
			continue
		}
		messages = append(messages, fmt.Sprintf("%s: %s", path, keyError.Message))
	}

	return InvalidArgumentError(strings.Join(messages, "; "))
}

const uuidPattern = `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`

const VoteSchema = `{
	"type": "object",
	"properties": {
		"value": {"type": "integer", "enum": [-1, 0, 1]}
	},
	"required": ["value"]
}`

const CreatePostSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 4, "maxLength": 25},
		"content": {"type": "string", "minLength": 15, "maxLength": 100},
		"latitude": {"type": "number", "minimum": -90, "maximum": 90},
		"longitude": {"type": "number", "minimum": -180, "maximum": 180},
		"poll": {
			"type": "object",
			"properties": {
				"votingLength": {"type": "integer", "minimum": 1, "maximum": 168},
				"options": {
					"type": "array",
					"minItems": 2,
					"maxItems": 6,
					"items": {"type": "string", "minLength": 1, "maxLength": 50}
				}
			},
			"required": ["votingLength", "options"]
		}
	},
	"required": ["title", "latitude", "longitude"]
}`

const UpdatePostSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 4, "maxLength": 25},
		"content": {"type": "string", "minLength": 15, "maxLength": 100}
	},
	"minProperties": 1
}`

const CommentSchema = `{
	"type": "object",
	"properties": {
		"content": {"type": "string", "minLength": 1, "maxLength": 500}
	},
	"required": ["content"]
}`

const RegisterSchema = `{
	"type": "object",
	"properties": {
		"username": {"type": "string", "pattern": "^[a-zA-Z][a-zA-Z0-9_]{2,19}$"},
		"email": {"type": "string", "format": "email", "maxLength": 254},
		"password": {"type": "string", "minLength": 8, "maxLength": 64}
	},
	"required": ["username", "email", "password"]
}`

const LoginSchema = `{
	"type": "object",
	"properties": {
		"email": {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 1}
	},
	"required": ["email", "password"]
}`

const ForgotPasswordSchema = `{
	"type": "object",
	"properties": {
		"email": {"type": "string", "format": "email"}
	},
	"required": ["email"]
}`

const ResetPasswordSchema = `{
	"type": "object",
	"properties": {
		"token": {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 8, "maxLength": 64}
	},
	"required": ["token", "password"]
}`

const PollVoteSchema = `{
	"type": "object",
	"properties": {
		"optionId": {"type": "string", "pattern": "` + uuidPattern + `"}
	},
	"required": ["optionId"]
}`
