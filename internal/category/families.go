// internal/category/families.go
package category

import (
	"encoding/json"
	"os"
	"strings"

	apperrors "directory-engine/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// familiesSchema validates the families configuration before it is
// trusted. A typo in the config should fail startup, not quietly match
// nothing.
const familiesSchema = `{
  "type": "object",
  "properties": {
    "families": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string", "minLength": 1}
      }
    },
    "exceptionGroups": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {"type": "string", "minLength": 1},
        "minItems": 1
      }
    }
  },
  "required": ["families"],
  "additionalProperties": false
}`

// familiesFile is the on-disk shape of the configuration.
type familiesFile struct {
	Families        map[string][]string `json:"families"`
	ExceptionGroups [][]string          `json:"exceptionGroups"`
}

// Families groups category names that refer to the same service under
// different labels, plus keyword exception groups for path matching.
type Families struct {
	// synonyms maps a lowercased name to its canonical family name.
	synonyms map[string]string
	// exceptionGroups hold lowercased keywords. Two paths that each
	// contain a keyword from the same group are treated as one page.
	exceptionGroups [][]string
}

// LoadFamilies reads and validates the families configuration.
func LoadFamilies(path string) (*Families, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewFamiliesConfigInvalidError(path, err)
	}
	return ParseFamilies(path, raw)
}

// ParseFamilies validates raw JSON against the schema and builds the
// lookup tables.
func ParseFamilies(path string, raw []byte) (*Families, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(familiesSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, apperrors.NewFamiliesConfigInvalidError(path, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, apperrors.NewFamiliesConfigInvalidError(path, &schemaError{strings.Join(msgs, "; ")})
	}

	var file familiesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, apperrors.NewFamiliesConfigInvalidError(path, err)
	}

	f := &Families{synonyms: make(map[string]string)}
	for canonical, names := range file.Families {
		key := strings.ToLower(strings.TrimSpace(canonical))
		f.synonyms[key] = canonical
		for _, name := range names {
			f.synonyms[strings.ToLower(strings.TrimSpace(name))] = canonical
		}
	}
	for _, group := range file.ExceptionGroups {
		lowered := make([]string, 0, len(group))
		for _, kw := range group {
			lowered = append(lowered, strings.ToLower(strings.TrimSpace(kw)))
		}
		f.exceptionGroups = append(f.exceptionGroups, lowered)
	}
	return f, nil
}

type schemaError struct{ msg string }

func (e *schemaError) Error() string { return e.msg }

// SameFamily reports whether two category names refer to the same
// service family. Names match when they are equal ignoring case, when
// one contains the other, or when the synonym table maps them to the
// same canonical family.
func (f *Families) SameFamily(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	if la == lb {
		return true
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}
	ca, aOK := f.synonyms[la]
	cb, bOK := f.synonyms[lb]
	if aOK && bOK && ca == cb {
		return true
	}
	// A raw name can also match a canonical name directly.
	if aOK && strings.EqualFold(ca, b) {
		return true
	}
	if bOK && strings.EqualFold(cb, a) {
		return true
	}
	return false
}

// SameExceptionGroup reports whether both paths carry a keyword from
// the same exception group. Inputs are expected lowercased.
func (f *Families) SameExceptionGroup(a, b string) bool {
	for _, group := range f.exceptionGroups {
		if containsAnyKeyword(a, group) && containsAnyKeyword(b, group) {
			return true
		}
	}
	return false
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
