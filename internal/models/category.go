package models

import "time"

type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

// Category classifies transactions. Hierarchy is one level deep.
type Category struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	ParentID  string       `json:"parent_id,omitempty"`
	Icon      string       `json:"icon,omitempty"`
	Color     string       `json:"color,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type CategoryInput struct {
	Name     string       `json:"name"`
	Type     CategoryType `json:"type"`
	ParentID string       `json:"parent_id,omitempty"`
	Icon     string       `json:"icon,omitempty"`
	Color    string       `json:"color,omitempty"`
}
