package anatomy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tokenRegex = regexp.MustCompile(
	`\{(?P<name>[a-zA-Z_][a-zA-Z0-9_]*)(?:\[(?P<key>[a-zA-Z0-9_]+)\])?(?::0>(?P<padding>\d+))?\}`)

// Optional sections may contain padded tokens, so a > inside braces
// must not terminate the section.
var optionalRegex = regexp.MustCompile(`<(?:[^<>{}]|\{[^{}]*\})*>`)

// Template is a publish path template. Tokens are written as {name},
// {name:0>N} for zero-padded numbers and {name[key]} for keyed values
// such as roots. Sections wrapped in angle brackets are optional and
// are dropped when a token inside them has no value.
type Template struct {
	raw string
}

// NewTemplate parses a template string. Parsing never fails for a
// token-free string; unmatched braces are reported as an error.
func NewTemplate(raw string) (*Template, error) {
	stripped := tokenRegex.ReplaceAllString(raw, "")
	stripped = optionalRegex.ReplaceAllString(stripped, "")
	if strings.ContainsAny(stripped, "{}") {
		return nil, fmt.Errorf("template %q contains unmatched braces", raw)
	}
	return &Template{raw: raw}, nil
}

func (t *Template) String() string {
	return t.raw
}

// Tokens returns the token names used in the template, in order of
// appearance and without duplicates.
func (t *Template) Tokens() []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, match := range tokenRegex.FindAllStringSubmatch(t.raw, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tokens = append(tokens, name)
	}
	return tokens
}

// Padding returns the zero-pad width declared for a token, or 0 when
// the token is unpadded or absent.
func (t *Template) Padding(token string) int {
	for _, match := range tokenRegex.FindAllStringSubmatch(t.raw, -1) {
		if match[1] != token || match[3] == "" {
			continue
		}
		padding, err := strconv.Atoi(match[3])
		if err != nil {
			continue
		}
		return padding
	}
	return 0
}

// Format resolves the template against the given data. Optional
// sections with missing tokens are dropped; missing tokens outside
// optional sections are left in place.
func (t *Template) Format(data map[string]any) string {
	result, _ := t.format(data, false)
	return result
}

// FormatStrict resolves the template and fails when a required token
// has no value.
func (t *Template) FormatStrict(data map[string]any) (string, error) {
	return t.format(data, true)
}

func (t *Template) format(data map[string]any, strict bool) (string, error) {
	var missing []string

	resolved := optionalRegex.ReplaceAllStringFunc(t.raw, func(section string) string {
		inner := section[1 : len(section)-1]
		replaced, sectionMissing := replaceTokens(inner, data)
		if len(sectionMissing) > 0 {
			return ""
		}
		return replaced
	})

	replaced, requiredMissing := replaceTokens(resolved, data)
	missing = append(missing, requiredMissing...)

	if strict {
		if len(missing) > 0 {
			return "", fmt.Errorf(
				"missing values for template tokens: %s",
				strings.Join(missing, ", "))
		}
		if strings.ContainsAny(replaced, "{}") {
			return "", fmt.Errorf("unresolved tokens in %q", replaced)
		}
	}
	return replaced, nil
}

func replaceTokens(text string, data map[string]any) (string, []string) {
	var missing []string
	replaced := tokenRegex.ReplaceAllStringFunc(text, func(token string) string {
		match := tokenRegex.FindStringSubmatch(token)
		name, key, padding := match[1], match[2], match[3]

		value, ok := data[name]
		if !ok {
			missing = append(missing, name)
			return token
		}
		if key != "" {
			keyed, ok := value.(map[string]string)
			if !ok {
				missing = append(missing, fmt.Sprintf("%s[%s]", name, key))
				return token
			}
			entry, ok := keyed[key]
			if !ok {
				missing = append(missing, fmt.Sprintf("%s[%s]", name, key))
				return token
			}
			return entry
		}
		if padding != "" {
			width, err := strconv.Atoi(padding)
			if err == nil {
				// Pre-padded strings keep their width when it already
				// meets or exceeds the declared one.
				if text, ok := value.(string); ok && len(text) >= width {
					return text
				}
				return fmt.Sprintf("%0*d", width, toInt(value))
			}
		}
		return fmt.Sprintf("%v", value)
	})
	return replaced, missing
}

func toInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		parsed, _ := strconv.Atoi(v)
		return parsed
	default:
		return 0
	}
}
