package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/moviemate/internal/domain"
)

// MatchGenre resolves user input like "Sci-Fi", "thrill" or "anim" to a
// genre. Exact keys and display names win; otherwise the closest fuzzy
// match is used.
func MatchGenre(input string) (domain.Genre, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return domain.DefaultGenre, nil
	}
	if g, err := domain.ParseGenre(input); err == nil {
		return g, nil
	}

	candidates := make([]string, 0, len(domain.Genres)*2)
	owner := make(map[string]domain.Genre, len(domain.Genres)*2)
	for _, g := range domain.Genres {
		for _, name := range []string{string(g), g.DisplayName()} {
			if strings.EqualFold(name, input) {
				return g, nil
			}
			if _, dup := owner[name]; !dup {
				candidates = append(candidates, name)
				owner[name] = g
			}
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(input, candidates)
	if len(ranks) == 0 {
		return "", domain.ErrUnknownGenre
	}
	sort.Sort(ranks)
	return owner[ranks[0].Target], nil
}
