// Package selection decides which research actions the current selection
// permits and keeps the ordered set of selected result items.
package selection

import (
	"strings"

	"github.com/abelbrown/emsal/internal/model"
)

// CanSummarize reports whether n selected items can be summarized.
func CanSummarize(n int) bool {
	return n == 1
}

// CanCompare reports whether n selected items can be compared.
func CanCompare(n int) bool {
	return n >= 2
}

// Allows reports whether action may run with n selected items.
func Allows(action model.AnalysisAction, n int) bool {
	switch action {
	case model.ActionSummarize:
		return CanSummarize(n)
	case model.ActionCompare:
		return CanCompare(n)
	}
	return false
}

// CanSearch reports whether a query can be sent: it needs text and at
// least one source. Otherwise the user is sent to pick sources.
func CanSearch(query string, sources []model.Source) bool {
	return strings.TrimSpace(query) != "" && len(sources) > 0
}
