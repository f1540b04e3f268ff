package domain

import "time"

type BlogPost struct {
	ID        int64     `gorm:"primaryKey"`
	Title     string    `gorm:"size:200;not null"`
	Slug      string    `gorm:"size:200;uniqueIndex;not null"`
	Content   string    `gorm:"not null"`
	Excerpt   string
	AuthorID  int64     `gorm:"not null;index"`
	Published bool      `gorm:"not null;default:false"`
	Tags      string    `gorm:"size:500"` // comma-separated
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}

func (p *BlogPost) TagList() []string {
	return splitList(p.Tags)
}

func (p *BlogPost) SetTags(tags []string) {
	p.Tags = joinList(tags)
}
