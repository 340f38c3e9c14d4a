package domain

// ComparisonRequest is the API payload for an ad-hoc comparison run
type ComparisonRequest struct {
	Retailers      []Retailer      `json:"retailers,omitempty" binding:"omitempty,unique,dive,required"`
	Categories     []CategoryInput `json:"categories" binding:"required,min=1,dive"`
	CodelessPolicy string          `json:"codelessPolicy,omitempty" binding:"omitempty,oneof=drop residual"`
}

// CategoryInput carries the retailer tables of one category
type CategoryInput struct {
	Name    string        `json:"name" binding:"required"`
	Sources []SourceInput `json:"sources" binding:"required,dive"`
}

// SourceInput is one retailer's table for a category
type SourceInput struct {
	Retailer Retailer   `json:"retailer" binding:"required"`
	Columns  []string   `json:"columns" binding:"required"`
	Rows     [][]string `json:"rows"`
}

// Tables flattens the request into source tables
func (r *ComparisonRequest) Tables() []SourceTable {
	var tables []SourceTable
	for _, c := range r.Categories {
		for _, s := range c.Sources {
			tables = append(tables, SourceTable{
				Retailer: s.Retailer,
				Category: c.Name,
				Columns:  s.Columns,
				Rows:     s.Rows,
			})
		}
	}
	return tables
}
