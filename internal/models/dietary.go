package models

import "strings"

const (
	DietaryNone       = "None"
	DietaryVegetarian = "Vegetarian"
	DietaryHalal      = "Halal"
	DietaryAllergy    = "Allergy"
	DietaryOther      = "Other"
)

const dietarySeparator = ": "

// dietaryNeedsNote reports whether a category carries a free-text elaboration.
func dietaryNeedsNote(category string) bool {
	return category == DietaryAllergy || category == DietaryOther
}

// ComposeDietary encodes a category and note as "<category>: <note>". The note is
// dropped for categories that take none.
func ComposeDietary(category, note string) string {
	category = strings.TrimSpace(category)
	note = strings.TrimSpace(note)
	if category == "" {
		category = DietaryNone
	}
	if note == "" || !dietaryNeedsNote(category) {
		return category
	}
	return category + dietarySeparator + note
}

// SplitDietary is the inverse of ComposeDietary.
func SplitDietary(v string) (category, note string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DietaryNone, ""
	}
	category, note, found := strings.Cut(v, dietarySeparator)
	if !found {
		return v, ""
	}
	return strings.TrimSpace(category), strings.TrimSpace(note)
}
