package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRuleSet is wrapped by every error returned while loading or
// compiling a rule set. Check with errors.Is.
var ErrInvalidRuleSet = errors.New("invalid rule set")

var validate = validator.New()

// ConfigError reports a structurally invalid rule.
type ConfigError struct {
	Rule    int    // index of the offending rule, -1 for the set itself
	Field   string // field name, if known
	Message string
}

func (e *ConfigError) Error() string {
	if e.Rule < 0 {
		return fmt.Sprintf("rule set: %s", e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("rule %d: %s: %s", e.Rule, e.Field, e.Message)
	}
	return fmt.Sprintf("rule %d: %s", e.Rule, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidRuleSet
}

// FromFile loads a rule set from a JSON or YAML file. When the file does not
// name the set, the file name without extension is used.
func FromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- rule files are operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var rs *RuleSet
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		rs, err = FromJSON(data)
	case ".yaml", ".yml":
		rs, err = FromYAML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported rule file format: %s", ErrInvalidRuleSet, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if rs.Name == "" {
		rs.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return rs, nil
}

// FromJSON parses and validates a rule set from JSON data.
func FromJSON(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON rules: %v", ErrInvalidRuleSet, err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// FromYAML parses and validates a rule set from YAML data.
func FromYAML(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML rules: %v", ErrInvalidRuleSet, err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadDir loads every .json, .yaml and .yml file in dir, keyed by set name.
// Two files resolving to the same name are an error.
func LoadDir(dir string) (map[string]*RuleSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sets := make(map[string]*RuleSet, len(names))
	for _, name := range names {
		rs, err := FromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if _, dup := sets[rs.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate rule set name %q in %s", ErrInvalidRuleSet, rs.Name, name)
		}
		sets[rs.Name] = rs
	}
	return sets, nil
}

// Validate checks the structural constraints of the rule set. Selector and
// regexp syntax is checked by Compile.
func (rs *RuleSet) Validate() error {
	if rs == nil {
		return &ConfigError{Rule: -1, Message: "nil rule set"}
	}
	err := validate.Struct(rs)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError(fe))
	}
	return errors.Join(errs...)
}

// fieldError converts a validator error on RuleSet.Rules[i].X into a ConfigError.
func fieldError(fe validator.FieldError) *ConfigError {
	idx := -1
	ns := fe.Namespace()
	if start := strings.Index(ns, "Rules["); start >= 0 {
		rest := ns[start+len("Rules["):]
		if end := strings.Index(rest, "]"); end > 0 {
			_, _ = fmt.Sscanf(rest[:end], "%d", &idx)
		}
	}

	field := fe.Field()
	if parent := parentField(ns); parent != "" {
		field = parent + "." + field
	}

	return &ConfigError{
		Rule:    idx,
		Field:   field,
		Message: formatValidationError(fe),
	}
}

// parentField returns TextMatch or AttrMatch when the error is nested in one.
func parentField(ns string) string {
	for _, p := range []string{"TextMatch", "AttrMatch"} {
		if strings.Contains(ns, "."+p+".") {
			return p
		}
	}
	return ""
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
