package edugen

import "github.com/santhosh-tekuri/jsonschema/v5"

// questionListSchemaJSON is the contract for the generation endpoint's
// response. The backend relays AI output more or less verbatim, so the
// client checks the shape before trusting it; a response that fails here is
// treated like any other transport failure.
const questionListSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "text": {"type": "string", "minLength": 1},
      "options": {"type": "array", "items": {"type": "string"}},
      "correctAnswer": {"type": "string"},
      "rubric": {"type": "string"}
    }
  }
}`

var questionListSchema = jsonschema.MustCompileString("questions.schema.json", questionListSchemaJSON)

func validateQuestionList(decoded any) error {
	return questionListSchema.Validate(decoded)
}
