package core

import "math"

const (
	defaultPageNumber = 1
	defaultPageLimit  = 10
)

// Page is a page/limit pair bound from query params.
type Page struct {
	Number int `query:"page"`
	Limit  int `query:"limit"`
}

func NewPage(number, limit int) Page {
	p := Page{Number: number, Limit: limit}
	p.Clean()
	return p
}

func (p *Page) Clean() {
	if p.Number < 1 {
		p.Number = defaultPageNumber
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// PageMeta is the pagination metadata returned alongside list results.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPageMeta(total int, p Page) PageMeta {
	return PageMeta{
		Total:      total,
		Page:       p.Number,
		Limit:      p.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}
