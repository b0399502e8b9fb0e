package narrative

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ShapeKind tags which response layout a text reply used.
type ShapeKind int

const (
	ShapeUnrecognized ShapeKind = iota
	// list whose first element carries generated_text
	ShapeListGenerated
	// list whose first element is anything else
	ShapeListOther
	// object with generated_text, text or generated_texts
	ShapeObjectField
	// object whose first long string field is taken
	ShapeObjectLongString
	// bare string, number or boolean
	ShapeScalar
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeListGenerated:
		return "list_generated_text"
	case ShapeListOther:
		return "list_other"
	case ShapeObjectField:
		return "object_field"
	case ShapeObjectLongString:
		return "object_long_string"
	case ShapeScalar:
		return "scalar"
	}
	return "unrecognized"
}

// minLongString is the length a string field must exceed to be taken from an
// object with no known text key.
const minLongString = 20

// TextShape is a normalized text reply.
type TextShape struct {
	Kind ShapeKind
	Text string
}

// NormalizeText extracts the generated text from a JSON reply body.
func NormalizeText(body []byte) (TextShape, error) {
	if !gjson.ValidBytes(body) {
		return TextShape{}, fmt.Errorf("%w: body is not JSON", ErrUnrecognizedResponse)
	}
	data := gjson.ParseBytes(body)

	switch {
	case data.IsArray():
		items := data.Array()
		if len(items) == 0 {
			return TextShape{}, fmt.Errorf("%w: empty list", ErrUnrecognizedResponse)
		}
		first := items[0]
		if first.IsObject() {
			if gen := first.Get("generated_text"); gen.Exists() {
				return TextShape{Kind: ShapeListGenerated, Text: stringify(gen)}, nil
			}
		}
		return TextShape{Kind: ShapeListOther, Text: stringify(first)}, nil

	case data.IsObject():
		if v := data.Get("generated_text"); v.Exists() {
			return TextShape{Kind: ShapeObjectField, Text: stringify(v)}, nil
		}
		if v := data.Get("text"); v.Exists() {
			return TextShape{Kind: ShapeObjectField, Text: stringify(v)}, nil
		}
		if v := data.Get("generated_texts"); v.IsArray() && len(v.Array()) > 0 {
			return TextShape{Kind: ShapeObjectField, Text: stringify(v.Array()[0])}, nil
		}

		var found string
		data.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String && len([]rune(value.Str)) > minLongString {
				found = value.Str
				return false
			}
			return true
		})
		if found != "" {
			return TextShape{Kind: ShapeObjectLongString, Text: found}, nil
		}
		return TextShape{}, fmt.Errorf("%w: object without text field", ErrUnrecognizedResponse)

	case data.Type == gjson.Null:
		return TextShape{}, fmt.Errorf("%w: null", ErrUnrecognizedResponse)
	}

	return TextShape{Kind: ShapeScalar, Text: stringify(data)}, nil
}

// stringify returns strings verbatim and everything else as its JSON text.
func stringify(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}
