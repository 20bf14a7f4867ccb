package domain

// Category is a main freedesktop menu category
// https://specifications.freedesktop.org/menu-spec/latest/apa.html
type Category string

const (
	CategoryAudioVideo  Category = "AudioVideo"
	CategoryDevelopment Category = "Development"
	CategoryEducation   Category = "Education"
	CategoryGame        Category = "Game"
	CategoryGraphics    Category = "Graphics"
	CategoryNetwork     Category = "Network"
	CategoryOffice      Category = "Office"
	CategoryScience     Category = "Science"
	CategorySystem      Category = "System"
	CategoryUtility     Category = "Utility"
)

// Categories lists every accepted category
var Categories = []Category{
	CategoryAudioVideo,
	CategoryDevelopment,
	CategoryEducation,
	CategoryGame,
	CategoryGraphics,
	CategoryNetwork,
	CategoryOffice,
	CategoryScience,
	CategorySystem,
	CategoryUtility,
}

// ValidateCategory checks if a category is one of the main categories
func ValidateCategory(category string) bool {
	for _, c := range Categories {
		if string(c) == category {
			return true
		}
	}
	return false
}
