package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: steps run against a freshly
// seeded catalog service, followed by assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Reset, if set, truncates the sample data to this many products
	// before the steps run.
	Reset *int `yaml:"reset,omitempty"`

	// IDPrefix prefixes generated keys ("<prefix>-1", ...). Default "id".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one host operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Set is the entity set the operation targets.
	Set string `yaml:"set,omitempty"`

	// Key selects a single record, e.g. {ID: 1}.
	Key map[string]any `yaml:"key,omitempty"`

	// Navigation turns a keyed read into a navigation read.
	Navigation string `yaml:"navigation,omitempty"`

	// Record holds field values for create and update.
	Record map[string]any `yaml:"record,omitempty"`

	// Merge selects merge semantics for update. Default is replace.
	Merge bool `yaml:"merge,omitempty"`

	// Query holds collection read options.
	Query *Query `yaml:"query,omitempty"`

	// Amount is the argument of reset and count_categories.
	Amount *int `yaml:"amount,omitempty"`

	// ContentType and Content are the media payload.
	ContentType string `yaml:"content_type,omitempty"`
	Content     string `yaml:"content,omitempty"`

	// Steps are the operations of a changeset.
	Steps []Step `yaml:"steps,omitempty"`

	// Expect specifies the expected outcome. If nil, nothing is checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Query mirrors query.Options in scenario form.
type Query struct {
	Count   bool   `yaml:"count,omitempty"`
	Skip    *int   `yaml:"skip,omitempty"`
	Top     *int   `yaml:"top,omitempty"`
	OrderBy string `yaml:"orderby,omitempty"`
	Desc    bool   `yaml:"desc,omitempty"`

	// Expand names a navigation, or "*" for the first binding.
	Expand string `yaml:"expand,omitempty"`

	// Filter is an expression tree in the expr.Decode form.
	Filter any `yaml:"filter,omitempty"`
}

// Expect specifies expected step behavior.
type Expect struct {
	// Status is the expected protocol status.
	Status int `yaml:"status,omitempty"`

	// Count is the expected collection count (query count option, or the
	// number of records when no count was requested).
	Count *int `yaml:"count,omitempty"`

	// Keys are the expected "ID" values of the returned records, in order.
	Keys []any `yaml:"keys,omitempty"`

	// Error is a substring expected in the error message (usually a code).
	Error string `yaml:"error,omitempty"`

	// Committed is the expected changeset outcome.
	Committed *bool `yaml:"committed,omitempty"`

	// Content is the expected media payload of read_media.
	Content *string `yaml:"content,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Set is the entity set inspected.
	Set string `yaml:"set"`

	// Key selects the record (final_state, record_absent).
	Key map[string]any `yaml:"key,omitempty"`

	// Expect contains expected field values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of records (set_count).
	Count *int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpRead            = "read"
	OpCreate          = "create"
	OpUpdate          = "update"
	OpDelete          = "delete"
	OpChangeSet       = "changeset"
	OpBegin           = "begin"
	OpCommit          = "commit"
	OpRollback        = "rollback"
	OpReset           = "reset"
	OpCountCategories = "count_categories"
	OpCreateMedia     = "create_media"
	OpReadMedia       = "read_media"
	OpUpdateMedia     = "update_media"
)

// Assertion type constants.
const (
	AssertFinalState   = "final_state"
	AssertSetCount     = "set_count"
	AssertRecordAbsent = "record_absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Reset != nil && *s.Reset < 0 {
		return fmt.Errorf("reset must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(fmt.Sprintf("steps[%d]", i), &step, false); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(path string, s *Step, inChangeSet bool) error {
	needSet := func() error {
		if s.Set == "" {
			return fmt.Errorf("%s: set is required for %s", path, s.Op)
		}
		return nil
	}
	needKey := func() error {
		if err := needSet(); err != nil {
			return err
		}
		if len(s.Key) == 0 {
			return fmt.Errorf("%s: key is required for %s", path, s.Op)
		}
		return nil
	}

	switch s.Op {
	case "":
		return fmt.Errorf("%s: op is required", path)
	case OpRead:
		if s.Navigation != "" && len(s.Key) == 0 {
			return fmt.Errorf("%s: navigation requires a key", path)
		}
		return needSet()
	case OpCreate, OpCreateMedia:
		return needSet()
	case OpUpdate, OpDelete, OpReadMedia, OpUpdateMedia:
		return needKey()
	case OpReset, OpCountCategories:
		if s.Amount == nil {
			return fmt.Errorf("%s: amount is required for %s", path, s.Op)
		}
		return nil
	case OpBegin, OpCommit, OpRollback, OpChangeSet:
		if inChangeSet {
			return fmt.Errorf("%s: %s is not allowed inside a changeset", path, s.Op)
		}
		if s.Op == OpChangeSet {
			if len(s.Steps) == 0 {
				return fmt.Errorf("%s: changeset needs steps", path)
			}
			for i, sub := range s.Steps {
				if err := validateStep(fmt.Sprintf("%s.steps[%d]", path, i), &sub, true); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown op %q", path, s.Op)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Set == "" {
		return fmt.Errorf("assertions[%d]: set is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if len(a.Key) == 0 {
			return fmt.Errorf("assertions[%d]: key is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertSetCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for set_count", index)
		}
	case AssertRecordAbsent:
		if len(a.Key) == 0 {
			return fmt.Errorf("assertions[%d]: key is required for record_absent", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
