package nlu

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sort"
	"strconv"
	"strings"
)

var ErrMalformedIntent = errors.New("malformed intent")

type Category string

const (
	CategoryWelcome         Category = "welcome command"
	CategoryNewProfile      Category = "new profile"
	CategorySeatSettings    Category = "seat settings"
	CategoryRoute           Category = "route command"
	CategoryServiceLocation Category = "service location command"
	CategoryVehicleSupport  Category = "vehicle support command"
	CategoryProfile         Category = "profile command"
	CategoryEmergency       Category = "emergency assistance command"
	CategoryEntertainment   Category = "entertainment command"
)

// Categories that carry a driver name suffix.
var named = []Category{CategoryWelcome, CategoryProfile}

var plain = []Category{
	CategoryNewProfile,
	CategorySeatSettings,
	CategoryRoute,
	CategoryServiceLocation,
	CategoryVehicleSupport,
	CategoryEmergency,
	CategoryEntertainment,
}

// Value is a classifier value: either a flag or free text.
type Value struct {
	Flag   bool
	Text   string
	truthy bool
}

func (v Value) Truthy() bool { return v.truthy }

func valueOf(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Value{}
	case bool:
		return Value{Flag: x, Text: strconv.FormatBool(x), truthy: x}
	case string:
		return Value{Text: x, truthy: x != ""}
	case float64:
		return Value{Text: strconv.FormatFloat(x, 'f', -1, 64), truthy: x != 0}
	case []any:
		b, _ := json.Marshal(x)
		return Value{Text: string(b), truthy: len(x) > 0}
	case map[string]any:
		b, _ := json.Marshal(x)
		return Value{Text: string(b), truthy: len(x) > 0}
	default:
		return Value{Text: fmt.Sprint(x), truthy: true}
	}
}

// Classification is the validated classifier output for one utterance.
type Classification struct {
	plain map[Category]Value
	named map[Category]map[string]Value
	names map[Category][]string
	bare  map[Category]bool
}

func newClassification() Classification {
	return Classification{
		plain: make(map[Category]Value),
		named: make(map[Category]map[string]Value),
		names: make(map[Category][]string),
		bare:  make(map[Category]bool),
	}
}

// Value returns the value of a plain category.
func (c Classification) Value(cat Category) (Value, bool) {
	v, ok := c.plain[cat]
	return v, ok
}

func (c Classification) Truthy(cat Category) bool {
	v, ok := c.plain[cat]
	return ok && v.Truthy()
}

// Has reports whether any key of the category is present, named or plain.
// A per-driver category without a name still counts as present.
func (c Classification) Has(cat Category) bool {
	if _, ok := c.plain[cat]; ok {
		return true
	}
	return c.bare[cat] || len(c.named[cat]) > 0
}

// Named returns the value for a per-driver category.
func (c Classification) Named(cat Category, name string) (Value, bool) {
	v, ok := c.named[cat][name]
	return v, ok
}

// NamesOf lists the driver names seen for a category in output order.
func (c Classification) NamesOf(cat Category) []string {
	return append([]string(nil), c.names[cat]...)
}

func (c Classification) Empty() bool {
	return len(c.plain) == 0 && len(c.named) == 0 && len(c.bare) == 0
}

func (c Classification) set(key string, v Value) bool {
	k := strings.TrimSpace(key)
	lower := strings.ToLower(k)

	for _, cat := range named {
		// the value of a nameless key never selects a driver
		if lower == string(cat) {
			c.bare[cat] = true
			return true
		}
		prefix := string(cat) + " "
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		name := strings.TrimSpace(k[len(prefix):])
		if c.named[cat] == nil {
			c.named[cat] = make(map[string]Value)
		}
		if _, seen := c.named[cat][name]; !seen {
			c.names[cat] = append(c.names[cat], name)
		}
		c.named[cat][name] = v
		return true
	}

	for _, cat := range plain {
		if lower == string(cat) {
			c.plain[cat] = v
			return true
		}
	}

	return false
}

// ParseClassification validates raw classifier output against the category
// schema. Keys outside the schema are dropped.
func ParseClassification(raw string) (Classification, error) {
	body := stripFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return Classification{}, fmt.Errorf("%w: %v (raw: %s)", ErrMalformedIntent, err, raw)
	}
	if obj == nil {
		return Classification{}, fmt.Errorf("%w: not an object (raw: %s)", ErrMalformedIntent, raw)
	}

	out := newClassification()

	// {"category": "route command"} and {"categories": [...]} are flattened to flags
	for _, wrap := range []string{"category", "categories"} {
		inner, ok := obj[wrap]
		if !ok {
			continue
		}
		delete(obj, wrap)
		for _, key := range flatten(inner) {
			if !out.set(key, valueOf(true)) {
				log.Debug("Dropped unknown category", "category", key)
			}
		}
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !out.set(key, valueOf(obj[key])) {
			log.Debug("Dropped unknown category", "category", key)
		}
	}

	return out, nil
}

func flatten(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		var out []string
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
