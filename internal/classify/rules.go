// Package classify labels inventory items as foreign (part of the
// out-of-distribution vendor stack) or stock (distro-default, must be
// preserved). Classification is a pure function of the item and an immutable
// rule set, so it can be tested against synthetic inventories.
package classify

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PackageRule matches a package or DKMS module name against an anchored,
// case-insensitive pattern. Kernel-flagged rules cover kernel-module
// packages and are ignored in userland scope.
type PackageRule struct {
	ID      string `yaml:"id"`
	Pattern string `yaml:"pattern"`
	Kernel  bool   `yaml:"kernel,omitempty"`

	re *regexp.Regexp
}

// RuleSet is the full classification policy. Built once at startup and passed
// into the classifier; never mutated afterwards.
type RuleSet struct {
	Packages []PackageRule `yaml:"packages"`
	// SourceKeywords mark an apt source file foreign when its content
	// contains any of them (case-insensitive).
	SourceKeywords []string `yaml:"source_keywords"`
	// PinKeywords do the same for apt preference files.
	PinKeywords []string `yaml:"pin_keywords"`
	// VendorDirNames mark a discovered install directory foreign by base name
	// prefix (rocm matches rocm-6.0).
	VendorDirNames []string `yaml:"vendor_dir_names"`
	// ModuleConfKeywords mark a modprobe config file foreign by file name.
	ModuleConfKeywords []string `yaml:"module_conf_keywords"`
	// ModuleConfKeep lists modprobe file names that are never foreign, such
	// as the preference file this tool writes itself.
	ModuleConfKeep []string `yaml:"module_conf_keep"`
	// VulkanStock and OpenCLStock are allow-lists: a descriptor whose library
	// path contains none of the substrings is foreign. Unknown third-party
	// ICDs are unsafe to leave active, so the policy direction is inverted
	// for these two kinds only.
	VulkanStock []string `yaml:"vulkan_stock"`
	OpenCLStock []string `yaml:"opencl_stock"`
}

// Default returns the built-in policy for the AMD vendor stack on
// Debian-family hosts.
func Default() (*RuleSet, error) {
	rs := &RuleSet{
		Packages: []PackageRule{
			{ID: "pkg-amdgpu", Pattern: `^amdgpu(-.*)?$`, Kernel: true},
			{ID: "pkg-rocm", Pattern: `^rocm(-.*)?$`},
			{ID: "pkg-hip", Pattern: `^hip(-.*)?$`},
			{ID: "pkg-hsa", Pattern: `^hsa(-.*)?$`},
			{ID: "pkg-roct", Pattern: `^roct(-.*)?$`},
			{ID: "pkg-comgr", Pattern: `^comgr(-.*)?$`},
			{ID: "pkg-pro-suffix", Pattern: `^.*-amdgpu-pro(-.*)?$`},
			{ID: "pkg-openmp-extras", Pattern: `^openmp-extras(-.*)?$`},
			{ID: "pkg-half", Pattern: `^half(-.*)?$`},
		},
		SourceKeywords:     []string{"repo.radeon.com", "amdgpu-install", "rocm"},
		PinKeywords:        []string{"amdgpu", "rocm", "radeon"},
		VendorDirNames:     []string{"amdgpu", "amdgpu-pro", "rocm"},
		ModuleConfKeywords: []string{"amdgpu", "rocm"},
		ModuleConfKeep:     []string{"amdgpu-reset-prefer-amdgpu.conf"},
		VulkanStock:        []string{"radv", "libvulkan_radeon"},
		OpenCLStock:        []string{"mesa", "rusticl", "clover"},
	}
	if err := rs.compile(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Load reads a YAML rule-set override. Missing sections fall back to the
// built-in defaults so an override file only needs to name what it changes.
func Load(path string) (*RuleSet, error) {
	def, err := Default()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	rs.applyDefaults(def)
	if err := rs.compile(); err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	return &rs, nil
}

func (rs *RuleSet) applyDefaults(def *RuleSet) {
	if len(rs.Packages) == 0 {
		rs.Packages = def.Packages
	}
	if len(rs.SourceKeywords) == 0 {
		rs.SourceKeywords = def.SourceKeywords
	}
	if len(rs.PinKeywords) == 0 {
		rs.PinKeywords = def.PinKeywords
	}
	if len(rs.VendorDirNames) == 0 {
		rs.VendorDirNames = def.VendorDirNames
	}
	if len(rs.ModuleConfKeywords) == 0 {
		rs.ModuleConfKeywords = def.ModuleConfKeywords
	}
	if len(rs.ModuleConfKeep) == 0 {
		rs.ModuleConfKeep = def.ModuleConfKeep
	}
	if len(rs.VulkanStock) == 0 {
		rs.VulkanStock = def.VulkanStock
	}
	if len(rs.OpenCLStock) == 0 {
		rs.OpenCLStock = def.OpenCLStock
	}
}

func (rs *RuleSet) compile() error {
	for i := range rs.Packages {
		pat := rs.Packages[i].Pattern
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return fmt.Errorf("package rule %s: %w", rs.Packages[i].ID, err)
		}
		rs.Packages[i].re = re
	}
	return nil
}

func containsFold(s string, keywords []string) (string, bool) {
	low := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(low, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
