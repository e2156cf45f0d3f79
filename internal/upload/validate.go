package upload

import (
	"fmt"
	"slices"
	"strings"

	"mangareader/internal/apperr"
)

// ValidateSubmission rejects a submission before anything is persisted.
func ValidateSubmission(sub Submission) error {
	if strings.TrimSpace(sub.Title) == "" {
		return apperr.Validation("title is required")
	}
	if strings.TrimSpace(sub.Author) == "" {
		return apperr.Validation("author is required")
	}
	if len(NormalizeGenres(sub.Genres)) == 0 {
		return apperr.Validation("at least one genre is required")
	}
	if sub.Status != "" && !slices.Contains(validStatuses, sub.Status) {
		return apperr.Validation("status must be one of " + strings.Join(validStatuses, ", "))
	}
	if sub.Type != "" && !slices.Contains(validTypes, sub.Type) {
		return apperr.Validation("type must be one of " + strings.Join(validTypes, ", "))
	}
	if sub.Rating < 0 || sub.Rating > 10 {
		return apperr.Validation("rating must be between 0 and 10")
	}
	if len(sub.Chapters) == 0 {
		return apperr.Validation("at least one chapter is required")
	}
	seen := make(map[int]bool, len(sub.Chapters))
	for _, ch := range sub.Chapters {
		if err := validateChapter(ch); err != nil {
			return err
		}
		if seen[ch.Number] {
			return apperr.Validation(fmt.Sprintf("chapter %d appears twice", ch.Number))
		}
		seen[ch.Number] = true
	}
	return nil
}

// NormalizeGenres trims tags, drops blanks and removes case-insensitive
// duplicates. The first spelling wins.
func NormalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]bool, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		key := strings.ToLower(g)
		if g == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, g)
	}
	return out
}

func validateChapter(ch ChapterSubmission) error {
	if ch.Number <= 0 {
		return apperr.Validation("chapter number must be positive")
	}
	if len(ch.Pages) == 0 {
		return apperr.Validation(fmt.Sprintf("chapter %d has no pages", ch.Number))
	}
	return nil
}

func validateChanges(c Changes) error {
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return apperr.Validation("title must not be empty")
	}
	if c.Author != nil && strings.TrimSpace(*c.Author) == "" {
		return apperr.Validation("author must not be empty")
	}
	if c.Genres != nil && len(NormalizeGenres(c.Genres)) == 0 {
		return apperr.Validation("at least one genre is required")
	}
	if c.Status != nil && !slices.Contains(validStatuses, *c.Status) {
		return apperr.Validation("status must be one of " + strings.Join(validStatuses, ", "))
	}
	if c.Type != nil && !slices.Contains(validTypes, *c.Type) {
		return apperr.Validation("type must be one of " + strings.Join(validTypes, ", "))
	}
	if c.Rating != nil && (*c.Rating < 0 || *c.Rating > 10) {
		return apperr.Validation("rating must be between 0 and 10")
	}
	return nil
}
