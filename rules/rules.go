package rules

import (
	"github.com/antonmedv/expr/vm"
)

type Capabilities struct {
	Add    map[string]interface{} `yaml:"add"`
	Remove map[string]interface{} `yaml:"remove"`
}

type Actions struct {
	Capabilities Capabilities `yaml:"capabilities"`
}

type Rule struct {
	Description string  `yaml:"description"`
	Filter      string  `yaml:"filter"`
	Actions     Actions `yaml:"actions"`
	Children    []Rule  `yaml:"children"`
}

type CompiledRule struct {
	Description string
	Filter      *vm.Program
	Actions     Actions
	Children    []CompiledRule
}

type RuleSet struct {
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"depends_on"`
	Rules     []Rule   `yaml:"rules"`
}

type InputProductData struct {
	Name         string
	Manufacturer string
	Version      string
	Serial       string
}

// Input is the environment a rule filter expression evaluates against.
type Input struct {
	Integration string
	Entity      string
	Capability  string
	Product     InputProductData
}

// Output is the accumulated result of executing all matching rules, keyed
// by capability implementation name with implementation specific settings
// as values.
type Output struct {
	Capabilities map[string]interface{}
}
