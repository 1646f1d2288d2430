package complaint

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is the routing decision for a complaint.
type Category struct {
	Department string
	Urgency    string
}

// KeywordRule maps a keyword to a value. Rules are evaluated in order and
// the first match wins.
type KeywordRule struct {
	Keyword string `yaml:"keyword"`
	Value   string `yaml:"value"`
}

// Rules is the department and urgency routing table.
type Rules struct {
	Departments       []KeywordRule `yaml:"departments"`
	Urgency           []KeywordRule `yaml:"urgency"`
	EmergencyKeywords []string      `yaml:"emergency_keywords"`
	DefaultDepartment string        `yaml:"default_department"`
	DefaultUrgency    string        `yaml:"default_urgency"`
}

// DefaultRules is the built-in routing table.
func DefaultRules() Rules {
	return Rules{
		Departments: []KeywordRule{
			{"electricity", "Electrical Department"},
			{"water", "Water Department"},
			{"road", "Public Works Department"},
			{"sanitation", "Sanitation Department"},
			{"tax", "Revenue Department"},
			{"property", "Municipal Corporation"},
			{"health", "Health Department"},
			{"education", "Education Department"},
			{"other", "General Administration"},
		},
		Urgency: []KeywordRule{
			{"emergency", "High"},
			{"urgent", "High"},
			{"critical", "High"},
			{"important", "Medium"},
			{"normal", "Medium"},
			{"routine", "Low"},
			{"minor", "Low"},
		},
		EmergencyKeywords: []string{"emergency", "urgent", "immediate", "critical", "accident", "fire", "flood"},
		DefaultDepartment: "General Administration",
		DefaultUrgency:    "Medium",
	}
}

// LoadRules reads a YAML routing table. Missing defaults are filled from
// DefaultRules.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read department rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse department rules %s: %w", path, err)
	}

	def := DefaultRules()
	if rules.DefaultDepartment == "" {
		rules.DefaultDepartment = def.DefaultDepartment
	}
	if rules.DefaultUrgency == "" {
		rules.DefaultUrgency = def.DefaultUrgency
	}
	if len(rules.Departments) == 0 {
		rules.Departments = def.Departments
	}
	return rules, nil
}

// Categorizer routes complaints using a rule table.
type Categorizer struct {
	rules Rules
}

// NewCategorizer creates a categorizer over rules.
func NewCategorizer(rules Rules) *Categorizer {
	return &Categorizer{rules: rules}
}

// Departments lists the distinct department names the table can produce.
func (c *Categorizer) Departments() []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range c.rules.Departments {
		if !seen[r.Value] {
			seen[r.Value] = true
			names = append(names, r.Value)
		}
	}
	if !seen[c.rules.DefaultDepartment] {
		names = append(names, c.rules.DefaultDepartment)
	}
	return names
}

// Categorize picks the department by keyword in the complaint type or
// description, and the urgency by keyword in the description. Any
// emergency keyword forces High.
func (c *Categorizer) Categorize(complaintType, description string) Category {
	typeLower := strings.ToLower(complaintType)
	descLower := strings.ToLower(description)

	cat := Category{
		Department: c.rules.DefaultDepartment,
		Urgency:    c.rules.DefaultUrgency,
	}

	for _, r := range c.rules.Departments {
		kw := strings.ToLower(r.Keyword)
		if strings.Contains(typeLower, kw) || strings.Contains(descLower, kw) {
			cat.Department = r.Value
			break
		}
	}

	for _, r := range c.rules.Urgency {
		if strings.Contains(descLower, strings.ToLower(r.Keyword)) {
			cat.Urgency = r.Value
			break
		}
	}

	for _, kw := range c.rules.EmergencyKeywords {
		if strings.Contains(descLower, strings.ToLower(kw)) {
			cat.Urgency = "High"
			break
		}
	}

	return cat
}
