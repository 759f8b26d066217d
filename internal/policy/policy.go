// Package policy holds per-service classification override rules.
//
// The canonical classification table in internal/outcome applies to every
// service. Providers occasionally diverge for a single service (a code that
// means failure for electricity but processing for cable); rather than
// special-casing the classifier, each divergence is declared here as an
// explicit, reviewable rule evaluated before the canonical table.
package policy

import (
	"fmt"
	"log"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/vending-reconciler/internal/outcome"
)

// RuleConfig declares one override rule. Expression is a govaluate
// expression over the parameters `service`, `code`, `status` and
// `description`; the first rule whose expression evaluates true wins.
type RuleConfig struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Outcome    string `yaml:"outcome"`          // success | failure | pending | indeterminate
	Reason     string `yaml:"reason,omitempty"` // failure reason override
}

type compiledRule struct {
	cfg  RuleConfig
	expr *govaluate.EvaluableExpression
	kind outcome.Kind
}

// ServiceRuleEnforcer evaluates override rules against provider responses.
type ServiceRuleEnforcer struct {
	rules []compiledRule
}

// NewServiceRuleEnforcer compiles the configured rules. Compilation errors,
// empty expressions and unknown outcome names are rejected up front so a bad
// rule can never silently misclassify at runtime.
func NewServiceRuleEnforcer(rules []RuleConfig) (*ServiceRuleEnforcer, error) {
	e := &ServiceRuleEnforcer{}
	for _, rc := range rules {
		if rc.Expression == "" {
			return nil, fmt.Errorf("policy rule %q has an empty expression", rc.Name)
		}
		kind, err := parseKind(rc.Outcome)
		if err != nil {
			return nil, fmt.Errorf("policy rule %q: %w", rc.Name, err)
		}
		expr, err := govaluate.NewEvaluableExpression(rc.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile policy rule %q: %w", rc.Name, err)
		}
		e.rules = append(e.rules, compiledRule{cfg: rc, expr: expr, kind: kind})
	}
	return e, nil
}

func parseKind(name string) (outcome.Kind, error) {
	switch name {
	case "success":
		return outcome.KindSuccess, nil
	case "failure":
		return outcome.KindFailure, nil
	case "pending":
		return outcome.KindPending, nil
	case "indeterminate":
		return outcome.KindIndeterminate, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", name)
	}
}

// Evaluate returns the override outcome for the first matching rule, or
// ok=false when no rule matches. Evaluation errors on a rule are returned to
// the caller; the caller is expected to fall back to the canonical table.
func (e *ServiceRuleEnforcer) Evaluate(serviceID string, resp outcome.ProviderResponse) (outcome.Outcome, bool, error) {
	params := map[string]any{
		"service":     serviceID,
		"code":        resp.Code,
		"status":      resp.Status,
		"description": resp.Description,
	}
	for _, rule := range e.rules {
		result, err := rule.expr.Evaluate(params)
		if err != nil {
			return outcome.Outcome{}, false, fmt.Errorf("evaluating policy rule %q: %w", rule.cfg.Name, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return outcome.Outcome{}, false, fmt.Errorf("policy rule %q did not evaluate to a boolean", rule.cfg.Name)
		}
		if !matched {
			continue
		}
		return e.build(rule, resp), true, nil
	}
	return outcome.Outcome{}, false, nil
}

func (e *ServiceRuleEnforcer) build(rule compiledRule, resp outcome.ProviderResponse) outcome.Outcome {
	switch rule.kind {
	case outcome.KindSuccess:
		return outcome.Success(resp.Payload)
	case outcome.KindFailure:
		reason := rule.cfg.Reason
		if reason == "" {
			reason = resp.Description
		}
		if reason == "" {
			reason = outcome.FallbackFailureReason
		}
		return outcome.Failure(reason)
	case outcome.KindPending:
		return outcome.Pending()
	default:
		return outcome.Indeterminate()
	}
}

// Classify applies the override rules and falls back to the canonical
// classification table. It never fails: a rule evaluation error is logged
// and the canonical table decides.
func (e *ServiceRuleEnforcer) Classify(serviceID string, resp outcome.ProviderResponse) outcome.Outcome {
	if e != nil {
		override, ok, err := e.Evaluate(serviceID, resp)
		if err != nil {
			log.Printf("policy: falling back to canonical classification for service %s: %v", serviceID, err)
		} else if ok {
			return override
		}
	}
	return outcome.Classify(resp)
}
