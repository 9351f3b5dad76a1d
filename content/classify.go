package content

import (
	"strings"

	"lesson-content-service/constant"
	"lesson-content-service/entities"
)

// Classify derives the aggregate content-type label for a lesson from its
// attached items. It is pure and must be re-run on every write so the stored
// label never drifts from the contents.
func Classify(items []entities.ContentItem) string {
	if len(items) == 0 {
		return constant.AggregateNone
	}

	types := make(map[string]struct{})
	for _, item := range items {
		if item.Type == "" {
			continue
		}
		types[strings.ToLower(item.Type)] = struct{}{}
	}

	if len(types) == 0 {
		return constant.AggregateNone
	}
	if len(types) == 1 {
		for t := range types {
			return t
		}
	}
	return constant.AggregateMixed
}
