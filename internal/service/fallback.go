package service

import (
	"career_advisor_backend/internal/model"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/fallback_careers.yaml
var fallbackCareersYAML []byte

type fallbackDomain struct {
	Key     string             `yaml:"key"`
	Aliases []string           `yaml:"aliases"`
	Careers []model.CareerPath `yaml:"careers"`
}

// FallbackTable 生成失败时使用的领域推荐表
type FallbackTable struct {
	byDomain map[string][]model.CareerPath
	generic  []model.CareerPath
}

func ParseFallbackTable(data []byte) (*FallbackTable, error) {
	var doc struct {
		Domains []fallbackDomain   `yaml:"domains"`
		Generic []model.CareerPath `yaml:"generic"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fallback careers: %w", err)
	}
	if len(doc.Generic) == 0 {
		return nil, fmt.Errorf("parse fallback careers: generic list is empty")
	}

	t := &FallbackTable{byDomain: map[string][]model.CareerPath{}, generic: doc.Generic}
	for _, d := range doc.Domains {
		for _, name := range append([]string{d.Key}, d.Aliases...) {
			t.byDomain[normalizeDomain(name)] = d.Careers
		}
	}
	return t, nil
}

// DefaultFallbackTable 内置表，解析失败属于编程错误
func DefaultFallbackTable() *FallbackTable {
	t, err := ParseFallbackTable(fallbackCareersYAML)
	if err != nil {
		panic(err)
	}
	return t
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// For 返回该领域的 3 条推荐副本；未知领域返回通用列表
func (t *FallbackTable) For(domain string) []model.CareerPath {
	src, ok := t.byDomain[normalizeDomain(domain)]
	if !ok {
		src = t.generic
	}
	out := make([]model.CareerPath, 0, len(src))
	for _, c := range src {
		out = append(out, withCareerDefaults(c, domain))
	}
	return out
}

func withCareerDefaults(c model.CareerPath, domain string) model.CareerPath {
	c.Domain = domain
	c.RequiredSkills = append([]string{}, c.RequiredSkills...)
	if c.JobOutlook == "" {
		c.JobOutlook = model.OutlookGrowing
	}
	if c.TimeToEntryMonths == 0 {
		c.TimeToEntryMonths = 12
	}
	if c.LearningResources == nil {
		c.LearningResources = []model.LearningResource{}
	}
	return c
}
