package record

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeySeparator joins the two normalized identity fields. Neither field is
// expected to contain it.
const KeySeparator = "|"

var lowercase = cases.Lower(language.Und)

// Key derives the swap-invariant identity key for an (author_name,
// account_id) pair. Both values are lower-cased and trimmed independently,
// then joined in lexicographic order, so Key(a, b) == Key(b, a) and records
// whose two fields were transposed between scrapes collide on the same key.
//
// Key is total: two empty inputs yield "|". Callers must exclude records
// where both normalized values are empty before grouping, otherwise every
// such record lands in one meaningless group.
func Key(authorName, accountID string) string {
	a := strings.TrimSpace(lowercase.String(authorName))
	b := strings.TrimSpace(lowercase.String(accountID))
	if a > b {
		a, b = b, a
	}
	return a + KeySeparator + b
}

// IdentityKey derives the key for a record's author_name/account_id fields.
// The second return reports whether at least one identity field is non-empty
// after normalization; records without one cannot be deduplicated reliably.
func IdentityKey(r Record) (string, bool) {
	key := Key(r.Text("author_name"), r.Text("account_id"))
	return key, key != KeySeparator
}
