// Package remedy turns foreign-labeled inventory items into an ordered plan
// of destructive-but-reversible actions and executes it. Files are renamed or
// quarantined, never deleted outright; package purges go through apt, which
// can reinstall them. Per-action failures are recorded and execution
// continues.
package remedy

import (
	"amdgpu-reset/internal/classify"
	"amdgpu-reset/internal/inventory"
)

// ActionKind is the mutation an action performs.
type ActionKind string

const (
	DisableSource         ActionKind = "disable_source"
	RemovePin             ActionKind = "remove_pin"
	PurgePackage          ActionKind = "purge_package"
	DeregisterModuleBuild ActionKind = "deregister_module_build"
	QuarantineFile        ActionKind = "quarantine_file"
	RemoveDirectory       ActionKind = "remove_directory"

	// Maintenance steps interleaved with the item actions. They carry no
	// item and exist so the report shows the full executed sequence.
	RefreshMetadata ActionKind = "refresh_metadata"
	AutoRemove      ActionKind = "autoremove"
	AutoClean       ActionKind = "autoclean"
)

// Action is one planned mutation, derived 1:1 from a foreign item.
type Action struct {
	Kind   ActionKind     `json:"kind"`
	Item   inventory.Item `json:"item"`
	RuleID string         `json:"rule_id,omitempty"`
	// BackupPath is filled in during execution for rename/quarantine kinds.
	BackupPath string `json:"backup_path,omitempty"`
}

// Result is the outcome of one executed action or maintenance step.
type Result struct {
	Action Action `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Plan derives actions from classification results. Stock items never yield
// an action. Order within the plan is collection order; execution order is
// decided by the phase sequence, not here.
func Plan(results []classify.Result) []Action {
	var actions []Action
	for _, r := range classify.ForeignOf(results) {
		kind, ok := actionKindFor(r.Item.Kind)
		if !ok {
			continue
		}
		actions = append(actions, Action{Kind: kind, Item: r.Item, RuleID: r.RuleID})
	}
	return actions
}

func actionKindFor(k inventory.Kind) (ActionKind, bool) {
	switch k {
	case inventory.KindRepositorySource:
		return DisableSource, true
	case inventory.KindPinRule:
		return RemovePin, true
	case inventory.KindPackage:
		return PurgePackage, true
	case inventory.KindModuleBuild:
		return DeregisterModuleBuild, true
	case inventory.KindModuleConfigFile, inventory.KindVulkanICD, inventory.KindOpenCLVendorFile:
		return QuarantineFile, true
	case inventory.KindCacheDirectory:
		return RemoveDirectory, true
	}
	return "", false
}
