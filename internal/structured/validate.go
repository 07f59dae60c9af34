package structured

import (
	"errors"
	"fmt"
	"strings"
)

// forbiddenKeywords are statement kinds that must never reach the
// warehouse. Finding one outside a string literal rejects the query.
var forbiddenKeywords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {}, "CREATE": {},
	"ALTER": {}, "TRUNCATE": {}, "MERGE": {}, "GRANT": {}, "REVOKE": {},
	"CALL": {}, "COPY": {}, "REPLACE": {},
}

// cleanSQL strips markdown fences and chatty prefixes a model tends to
// wrap around generated SQL, plus any trailing semicolon.
func cleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```sql"); i >= 0 {
		s = s[i+len("```sql"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+len("```"):]
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"SQL:", "Query:", "sql:", "query:"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
}

// validateReadOnly checks that the query is a single read-only statement:
// it must start with SELECT or WITH, contain no statement separator and
// no DDL/DML keyword outside string literals.
func validateReadOnly(query string) error {
	tokens, separators := scanSQL(query)
	if len(tokens) == 0 {
		return errors.New("generated text is not a SQL query")
	}
	if separators > 0 {
		return errors.New("generated SQL contains multiple statements")
	}
	if first := tokens[0]; first != "SELECT" && first != "WITH" {
		return fmt.Errorf("generated SQL must start with SELECT or WITH, got %s", first)
	}
	for _, tok := range tokens {
		if _, bad := forbiddenKeywords[tok]; bad {
			return fmt.Errorf("generated SQL contains forbidden keyword %s", tok)
		}
	}
	return nil
}

// scanSQL returns the uppercase word tokens of the query outside of
// single-quoted string literals and the count of statement separators.
// A doubled quote inside a literal is the standard SQL escape.
func scanSQL(query string) (tokens []string, separators int) {
	var word strings.Builder
	inString := false
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToUpper(word.String()))
			word.Reset()
		}
	}
	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inString {
			if ch == '\'' {
				if i+1 < len(runes) && runes[i+1] == '\'' {
					i++ // escaped quote
					continue
				}
				inString = false
			}
			continue
		}
		switch {
		case ch == '\'':
			flush()
			inString = true
		case ch == ';':
			flush()
			separators++
		case ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || word.Len() > 0 && ch >= '0' && ch <= '9':
			word.WriteRune(ch)
		default:
			flush()
		}
	}
	flush()
	return tokens, separators
}
