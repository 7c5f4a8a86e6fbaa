package model

// DefaultCategory is attributed to entries that carry no category.
const DefaultCategory = "General"

// DefaultCategories returns the category palette offered for new entries.
func DefaultCategories() []string {
	return []string{
		DefaultCategory,
		"Food",
		"Transport",
		"Utilities",
		"Entertainment",
		"Salary",
		"Health",
	}
}
