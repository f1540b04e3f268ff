package domain

import (
	"strings"
	"time"
)

type Project struct {
	ID           int64  `gorm:"primaryKey"`
	Title        string `gorm:"size:200;not null"`
	Description  string `gorm:"not null"`
	Technologies string `gorm:"size:500"` // comma-separated
	GithubURL    string `gorm:"column:github_url;size:500"`
	LiveURL      string `gorm:"column:live_url;size:500"`
	ImageURL     string `gorm:"column:image_url;size:500"`
	Featured     bool   `gorm:"not null;default:false"`
	SortOrder    int    `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) TechnologyList() []string {
	return splitList(p.Technologies)
}

func (p *Project) SetTechnologies(technologies []string) {
	p.Technologies = joinList(technologies)
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}
