package database

import (
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// SelectBuilder is a postgres-flavored select builder
type SelectBuilder struct {
	*sqlbuilder.SelectBuilder
}

// NewSelectBuilder creates a select builder that renders $n placeholders
func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{sqlbuilder.PostgreSQL.NewSelectBuilder()}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns text into a LIKE pattern matching it anywhere, with the
// wildcards in text taken literally
func ContainsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
