package classify

import (
	"strings"

	"amdgpu-reset/internal/inventory"
)

// Label is the classification outcome for one item.
type Label string

const (
	Foreign Label = "foreign"
	Stock   Label = "stock"
)

// Result pairs an item with its label and, for foreign items, the rule that
// matched (recorded for the run report).
type Result struct {
	Item   inventory.Item `json:"item"`
	Label  Label          `json:"label"`
	RuleID string         `json:"rule_id,omitempty"`
}

// Classifier applies one immutable rule set. Scope controls whether
// kernel-flagged package rules participate.
type Classifier struct {
	Rules *RuleSet
	Scope inventory.Scope
}

// Classify labels every item in the snapshot. Every item receives exactly one
// label; an item no rule matches is stock — nothing is destroyed that was not
// positively identified.
func (c *Classifier) Classify(items []inventory.Item) []Result {
	out := make([]Result, 0, len(items))
	for _, it := range items {
		label, rule := c.classifyOne(it)
		out = append(out, Result{Item: it, Label: label, RuleID: rule})
	}
	return out
}

func (c *Classifier) classifyOne(it inventory.Item) (Label, string) {
	switch it.Kind {
	case inventory.KindPackage, inventory.KindModuleBuild:
		for _, r := range c.Rules.Packages {
			if r.Kernel && c.Scope == inventory.ScopeUserland {
				continue
			}
			if r.re.MatchString(it.Name) {
				return Foreign, r.ID
			}
		}

	case inventory.KindRepositorySource:
		if kw, ok := containsFold(it.Content, c.Rules.SourceKeywords); ok {
			return Foreign, "source-keyword:" + kw
		}

	case inventory.KindPinRule:
		if kw, ok := containsFold(it.Content, c.Rules.PinKeywords); ok {
			return Foreign, "pin-keyword:" + kw
		}

	case inventory.KindCacheDirectory:
		low := strings.ToLower(it.Name)
		for _, name := range c.Rules.VendorDirNames {
			if low == name || strings.HasPrefix(low, name+"-") {
				return Foreign, "vendor-dir:" + name
			}
		}

	case inventory.KindModuleConfigFile:
		for _, keep := range c.Rules.ModuleConfKeep {
			if it.Name == keep {
				return Stock, ""
			}
		}
		if kw, ok := containsFold(it.Name, c.Rules.ModuleConfKeywords); ok {
			return Foreign, "modconf-keyword:" + kw
		}

	case inventory.KindVulkanICD:
		// Allow-list: only a descriptor that affirmatively names the in-tree
		// open driver is stock.
		if _, ok := containsFold(it.LibraryPath, c.Rules.VulkanStock); ok {
			return Stock, ""
		}
		return Foreign, "vulkan-nonstock"

	case inventory.KindOpenCLVendorFile:
		if _, ok := containsFold(it.LibraryPath, c.Rules.OpenCLStock); ok {
			return Stock, ""
		}
		return Foreign, "opencl-nonstock"
	}

	return Stock, ""
}

// ForeignOf filters results down to the foreign ones, preserving order.
func ForeignOf(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Label == Foreign {
			out = append(out, r)
		}
	}
	return out
}
