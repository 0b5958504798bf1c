package engine

import (
	"fmt"
	"strings"
	"time"

	"selfmod/pkg/models"
)

// directiveRule binds a keyword set to the directive it selects. Rules are
// evaluated in order and each can match independently.
type directiveRule struct {
	keywords  []string
	directive models.Directive
}

var directiveRules = []directiveRule{
	{
		keywords: []string{"performance", "optimize"},
		directive: models.Directive{
			Kind:        models.DirectiveAddPerformanceMarkers,
			Description: "Add performance markers to functions",
			Risk:        models.RiskLow,
		},
	},
	{
		keywords: []string{"log", "debug"},
		directive: models.Directive{
			Kind:        models.DirectiveAddLogging,
			Description: "Add logging to function entries",
			Risk:        models.RiskLow,
		},
	},
	{
		keywords: []string{"clean", "format"},
		directive: models.Directive{
			Kind:        models.DirectiveCodeCleanup,
			Description: "Clean up code structure",
			Risk:        models.RiskLow,
		},
	},
}

// defaultDirective is used when no keyword set matches the objective.
var defaultDirective = models.Directive{
	Kind:        models.DirectiveAddPerformanceMarkers,
	Description: "Add performance markers (default)",
	Risk:        models.RiskLow,
}

// synthesizePlan maps an objective onto directives from the closed catalog.
// Fully deterministic: same report and objective always yield the same plan,
// timestamp aside.
func synthesizePlan(report *models.AnalysisReport, objective string) *models.Plan {
	lower := strings.ToLower(objective)

	var directives []models.Directive
	for _, rule := range directiveRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				directives = append(directives, rule.directive)
				break
			}
		}
	}
	if len(directives) == 0 {
		directives = append(directives, defaultDirective)
	}

	return &models.Plan{
		Objective:     objective,
		FilePath:      report.FilePath,
		Directives:    directives,
		EstimatedTime: fmt.Sprintf("%d minutes", len(directives)),
		SourceDigest:  report.SourceDigest,
		Timestamp:     time.Now(),
	}
}
