package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "dormitory/errors"
	"dormitory/repository"

	"github.com/schollz/closestmatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// maxSuggestionDistance bounds how far a "did you mean" hint may be from the input.
const maxSuggestionDistance = 2

// suggestionCandidates is how many closestmatch hits are ranked by edit distance.
const suggestionCandidates = 3

var suggestionBagSizes = []int{1, 2}

// SuggestRoomNumber returns the closest known room number, or "" when none is close enough.
// Matching is case-insensitive; the result keeps the stored spelling.
func SuggestRoomNumber(known []string, query string) string {
	if len(known) == 0 || query == "" {
		return ""
	}
	folded := make([]string, 0, len(known))
	original := make(map[string]string, len(known))
	for _, number := range known {
		key := strings.ToLower(number)
		if _, ok := original[key]; !ok {
			original[key] = number
			folded = append(folded, key)
		}
	}
	q := strings.ToLower(query)
	if _, ok := original[q]; ok {
		return ""
	}

	best, bestDistance := "", maxSuggestionDistance+1
	for _, candidate := range closestmatch.New(folded, suggestionBagSizes).ClosestN(q, suggestionCandidates) {
		if candidate == "" {
			continue
		}
		d := levenshtein.DistanceForStrings([]rune(q), []rune(candidate), levenshtein.DefaultOptions)
		if d < bestDistance || (d == bestDistance && original[candidate] < best) {
			best, bestDistance = original[candidate], d
		}
	}
	if bestDistance > maxSuggestionDistance {
		return ""
	}
	return best
}

func roomNotFound(ctx context.Context, repo *repository.Repository, roomNumber string) error {
	appErr := apperrors.NotFound(apperrors.ErrCodeRoomNotFound, fmt.Sprintf("Room %s not found", roomNumber))
	known, err := repo.Room.ListNumbers(ctx)
	if err != nil {
		return appErr
	}
	if suggestion := SuggestRoomNumber(known, roomNumber); suggestion != "" {
		appErr.Suggestion = suggestion
		appErr.Message = fmt.Sprintf("Room %s not found, did you mean %s?", roomNumber, suggestion)
	}
	return appErr
}
