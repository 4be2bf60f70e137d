// Package export renders evaluation and generation results as plain-text
// reports and writes them to per-job output directories.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/job-evaluator/internal/generator"
	"github.com/jonathan/job-evaluator/internal/pipeline"
	"github.com/jonathan/job-evaluator/internal/standards"
	"github.com/jonathan/job-evaluator/internal/types"
)

const ruleWidth = 80

func rule(ch string) string {
	return strings.Repeat(ch, ruleWidth)
}

// FormatEvaluation renders a full evaluation run as a plain-text report.
// Gauge and classification sections appear only when those stages ran.
func FormatEvaluation(result *pipeline.EvaluationResult) string {
	var b reportBuilder

	b.title("JOB EVALUATION ANALYSIS REPORT")

	b.section("TOOL 1: POSITION COMPARISON")
	comp := result.Comparison
	if comp != nil {
		b.field("Original Document", comp.OldDocument)
		b.field("Updated Document", comp.NewDocument)
		b.field("Summary", comp.Summary)
		b.field("Overall Significance", strings.ToUpper(string(comp.OverallSignificance)))
		b.field("Changes by Section", formatSections(comp.ChangesBySection))
		b.field("Classification Relevant Changes", formatCategories(comp.ClassificationRelevantChanges))
	}

	if result.Gauge != nil {
		b.divider()
		b.section("TOOL 2: RE-EVALUATION GAUGE")
		g := result.Gauge
		b.field("Should Re-evaluate", yesNo(g.ShouldReevaluate))
		b.field("Confidence", fmt.Sprintf("%d%%", g.Confidence))
		b.field("Current Level", standards.FormatLevelKey(g.CurrentLevel))
		b.field("Likely New Level Range", g.LikelyNewLevelRange)
		b.field("Risk Assessment", strings.ToUpper(string(g.RiskAssessment)))
		b.field("Rationale", g.Rationale)
		b.field("Key Factors", formatList(g.KeyFactors))
		b.field("Categories Affected", formatList(g.CategoriesAffected))
	}

	if result.Classification != nil {
		b.divider()
		b.section("TOOL 3: CLASSIFICATION RECOMMENDATION")
		b.classification(result.Classification, true)
	}

	b.costSummary(result.Cost)
	return b.String()
}

// FormatClassification renders a standalone classification as a report.
func FormatClassification(result *pipeline.ClassifyResult) string {
	var b reportBuilder

	b.title("JOB EVALUATION ANALYSIS REPORT")
	b.section("CLASSIFICATION RECOMMENDATION")
	b.classification(result.Classification, false)
	b.costSummary(result.Cost)
	return b.String()
}

// FormatGeneration renders every provider's job description side by side.
func FormatGeneration(result *generator.Result) string {
	var b reportBuilder

	b.title("JOB DESCRIPTION GENERATION REPORT")

	for _, pr := range result.Results {
		b.section(fmt.Sprintf("PROVIDER: %s", strings.ToUpper(string(pr.Provider))))
		if pr.Error != "" {
			b.field("Status", "FAILED")
			b.field("Error", pr.Error)
			continue
		}
		d := pr.Description
		b.field("Model", pr.Model)
		b.field("Job Working Title", d.JobWorkingTitle)
		b.field("Department", d.Department)
		b.field("Reports To", d.ReportsTo)
		b.field("Overall Purpose", d.OverallPurpose)
		b.field("Key Responsibilities", formatList(d.KeyResponsibilities))
		b.field("People Management", d.PeopleManagement)
		b.field("Contacts (Typical)", d.ContactsTypical)
		b.field("Innovation", d.Innovation)
		b.field("Decision Making", d.DecisionMaking)
		b.field("Impact of Results", d.ImpactOfResults)
		b.field("Working Conditions", d.WorkingConditions)
		b.divider()
	}

	b.field("Total Tokens", fmt.Sprintf("%d", result.TotalUsage().TotalTokens()))

	return b.String()
}

// WriteReport writes a report to <outDir>/<jobID>/report.txt, creating the
// directory as needed, and returns the written path.
func WriteReport(outDir, jobID, report string) (string, error) {
	dir := filepath.Join(outDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

type reportBuilder struct {
	lines []string
}

func (b *reportBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

func (b *reportBuilder) title(text string) {
	b.lines = append(b.lines, text, rule("="), "")
}

func (b *reportBuilder) section(text string) {
	b.lines = append(b.lines, text, rule("="), "")
}

func (b *reportBuilder) divider() {
	b.lines = append(b.lines, "", rule("-"), "")
}

// field appends a labeled value, indenting multi-line values. Empty values
// are skipped entirely.
func (b *reportBuilder) field(label, value string) {
	if value == "" {
		return
	}
	b.lines = append(b.lines, label+":")
	for _, line := range strings.Split(value, "\n") {
		b.lines = append(b.lines, "  "+line)
	}
	b.lines = append(b.lines, "")
}

func (b *reportBuilder) classification(c *types.ClassificationRecommendation, withContext bool) {
	b.field("Position Title", c.PositionTitle)
	b.field("Recommended Level", standards.FormatLevelKey(c.RecommendedLevel))
	b.field("Confidence", fmt.Sprintf("%d%%", c.Confidence))
	if withContext {
		previous := "N/A"
		if c.PreviousLevel != nil {
			previous = standards.FormatLevelKey(*c.PreviousLevel)
		}
		b.field("Previous Level", previous)
		b.field("Change Context Used", yesNo(c.ChangeContextUsed))
	}
	b.field("Rationale", c.Rationale)
	b.field("Category Analysis", formatAnalysis(c.CategoryAnalysis))
	b.field("Supporting Evidence", formatList(c.SupportingEvidence))
	b.field("Alternative Levels", formatLevels(c.AlternativeLevels))
	b.field("Comparable Positions", formatList(c.ComparablePositions))
}

func (b *reportBuilder) costSummary(cost pipeline.CostSummary) {
	if len(cost.Calls) == 0 {
		return
	}
	b.divider()
	b.section("USAGE")
	for _, call := range cost.Calls {
		b.field(fmt.Sprintf("%s (%s)", call.Stage, call.Model),
			fmt.Sprintf("tokens in=%d out=%d cost=$%.4f", call.InputTokens, call.OutputTokens, call.CostUSD))
	}
	b.field("Total", fmt.Sprintf("tokens=%d cost=$%.4f", cost.TotalTokens, cost.TotalCostUSD))
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "- " + item
	}
	return strings.Join(out, "\n")
}

func formatLevels(levels []int) string {
	if len(levels) == 0 {
		return ""
	}
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = "- " + standards.FormatLevelKey(l)
	}
	return strings.Join(out, "\n")
}

func formatAnalysis(analysis map[string]string) string {
	var out []string
	for _, key := range types.CategoryKeys() {
		if text := analysis[key]; text != "" {
			out = append(out, fmt.Sprintf("%s: %s", types.CategoryDisplayNames[key], text))
		}
	}
	return strings.Join(out, "\n")
}

func formatSections(sections map[string]types.ChangeSet) string {
	if len(sections) == 0 {
		return ""
	}
	var names []string
	for name := range sections {
		names = append(names, name)
	}
	// Stable output regardless of map order.
	sort.Strings(names)

	var out []string
	for _, name := range names {
		cs := sections[name]
		out = append(out, name+":")
		out = append(out, formatChangeSet(cs)...)
	}
	return strings.Join(out, "\n")
}

func formatCategories(categories map[string]types.ChangeSet) string {
	var out []string
	for _, key := range types.CategoryKeys() {
		cs, ok := categories[key]
		if !ok || cs.Empty() {
			continue
		}
		out = append(out, types.CategoryDisplayNames[key]+":")
		out = append(out, formatChangeSet(cs)...)
	}
	return strings.Join(out, "\n")
}

func formatChangeSet(cs types.ChangeSet) []string {
	var out []string
	for _, item := range cs.Additions {
		out = append(out, "  + "+item)
	}
	for _, item := range cs.Deletions {
		out = append(out, "  - "+item)
	}
	for _, item := range cs.Modifications {
		out = append(out, "  ~ "+item)
	}
	return out
}
