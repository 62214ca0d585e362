package rules

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/antonmedv/expr"
	"gopkg.in/yaml.v3"
)

type Engine struct {
	RuleSets map[string]RuleSet
	Rules    []CompiledRule
}

func (e *Engine) LoadString(s string) error {
	return e.LoadReader(strings.NewReader(s))
}

func (e *Engine) LoadReader(r io.Reader) error {
	rs := RuleSet{}

	if err := yaml.NewDecoder(r).Decode(&rs); err != nil {
		return fmt.Errorf("ruleset parse: %w", err)
	}

	if len(rs.Name) == 0 {
		return fmt.Errorf("ruleset parse: ruleset has no name")
	}

	if e.RuleSets == nil {
		e.RuleSets = map[string]RuleSet{}
	}

	if _, present := e.RuleSets[rs.Name]; present {
		return fmt.Errorf("ruleset parse: duplicate ruleset: %s", rs.Name)
	}

	e.RuleSets[rs.Name] = rs

	return nil
}

func (e *Engine) LoadFS(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || (!strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml")) {
			return nil
		}

		f, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := e.LoadReader(f); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		return nil
	})
}

func (e *Engine) CompileRules() error {
	alreadyLoaded := map[string]bool{}

	for k := range e.RuleSets {
		alreadyLoaded[k] = false
	}

	for k := range e.RuleSets {
		if !alreadyLoaded[k] {
			if err := e.compileRuleSet(alreadyLoaded, []string{}, k); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Engine) compileRuleSet(alreadyLoaded map[string]bool, trail []string, name string) error {
	rs, ok := e.RuleSets[name]
	if !ok {
		return fmt.Errorf("ruleset missing dependency: %s->%s", strings.Join(trail, "->"), name)
	}

	trail = append(trail, rs.Name)

	for _, k := range rs.DependsOn {
		for _, t := range trail {
			if k == t {
				return fmt.Errorf("ruleset circular dependency: %s->%s", strings.Join(trail, "->"), k)
			}
		}

		if !alreadyLoaded[k] {
			if err := e.compileRuleSet(alreadyLoaded, trail, k); err != nil {
				return err
			}
		}
	}

	if cr, err := compileRules(rs.Rules); err != nil {
		return fmt.Errorf("ruleset compilation: %s: %w", strings.Join(trail, "->"), err)
	} else {
		e.Rules = append(e.Rules, cr...)
	}

	alreadyLoaded[name] = true

	return nil
}

func compileRules(rules []Rule) ([]CompiledRule, error) {
	var compiledRules []CompiledRule

	for _, rule := range rules {
		cf, err := expr.Compile(rule.Filter, expr.Env(Input{}))
		if err != nil {
			return nil, fmt.Errorf("filter compilation: %w", err)
		}

		if childCompiledRules, err := compileRules(rule.Children); err != nil {
			return nil, fmt.Errorf("%s: %w", rule.Description, err)
		} else {
			compiledRules = append(compiledRules, CompiledRule{
				Description: rule.Description,
				Filter:      cf,
				Actions:     rule.Actions,
				Children:    childCompiledRules,
			})
		}
	}

	return compiledRules, nil
}

// Execute evaluates all compiled rules against the input, in load order.
// Matching rules add or remove capability entries from the output, and
// only a matching rule has its children evaluated.
func (e *Engine) Execute(i Input) (Output, error) {
	o := Output{Capabilities: map[string]interface{}{}}

	if err := executeRules(e.Rules, i, &o); err != nil {
		return Output{}, err
	}

	return o, nil
}

func executeRules(rules []CompiledRule, i Input, o *Output) error {
	for _, r := range rules {
		result, err := expr.Run(r.Filter, i)
		if err != nil {
			return fmt.Errorf("%s: filter execution: %w", r.Description, err)
		}

		matched, ok := result.(bool)
		if !ok {
			return fmt.Errorf("%s: filter did not evaluate to a boolean", r.Description)
		}

		if !matched {
			continue
		}

		for k, v := range r.Actions.Capabilities.Add {
			o.Capabilities[k] = v
		}

		for k := range r.Actions.Capabilities.Remove {
			delete(o.Capabilities, k)
		}

		if err := executeRules(r.Children, i, o); err != nil {
			return err
		}
	}

	return nil
}
