package matching

import "regexp"

// synonymRule folds a surface variant down to a single canonical term before
// tokenization, so "btc" and "bitcoin" land on the same stem.
type synonymRule struct {
	pattern *regexp.Regexp
	replace string
}

// synonymLexicon is the domain vocabulary the matcher knows about: crypto
// asset tickers, a handful of recurring political entities and titles,
// month abbreviations, and the polarity words resolution text leans on.
// It is intentionally small — the goal is folding the handful of variants
// that actually recur across Polymarket and Kalshi question text, not a
// general-purpose thesaurus.
var synonymLexicon = buildSynonymRules(map[string]string{
	`\bbtc\b`:                 "bitcoin",
	`\bxbt\b`:                 "bitcoin",
	`\beth\b`:                 "ethereum",
	`\bpotus\b`:                "president",
	`\bgop\b`:                 "republican",
	`\bdems?\b`:               "democrat",
	`\bdonald j\.? trump\b`:   "trump",
	`\bjoe biden\b`:           "biden",
	`\bfed\b`:                 "federalreserve",
	`\bfomc\b`:                "federalreserve",
	`\bjan\b`:                 "january",
	`\bfeb\b`:                 "february",
	`\bmar\b`:                 "march",
	`\bapr\b`:                 "april",
	`\bjun\b`:                 "june",
	`\bjul\b`:                 "july",
	`\baug\b`:                 "august",
	`\bsept?\b`:               "september",
	`\boct\b`:                 "october",
	`\bnov\b`:                 "november",
	`\bdec\b`:                 "december",
	`\bwinner\b`:              "win",
	`\bwins\b`:                "win",
	`\bwon\b`:                 "win",
	`\bchampion\b`:            "win",
})

func buildSynonymRules(m map[string]string) []synonymRule {
	rules := make([]synonymRule, 0, len(m))
	for pattern, replacement := range m {
		rules = append(rules, synonymRule{pattern: regexp.MustCompile(pattern), replace: replacement})
	}
	return rules
}

// foldSynonyms rewrites known surface variants in an already-lower-cased
// string to their canonical form.
func foldSynonyms(lower string) string {
	for _, rule := range synonymLexicon {
		lower = rule.pattern.ReplaceAllString(lower, rule.replace)
	}
	return lower
}
