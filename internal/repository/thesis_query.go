package repository

import (
	"fmt"
	"strings"

	"thesisarchive/internal/model"
)

var thesisSortColumns = map[string]string{
	"recent":     "created_at DESC",
	"oldest":     "created_at ASC",
	"title-asc":  "title ASC",
	"title-desc": "title DESC",
	"downloads":  "download_count DESC",
	"views":      "view_count DESC",
}

var thesisSearchColumns = []string{"title", "author_name", "department", "abstract", "program"}

func thesisOrderBy(sort string) string {
	if order, ok := thesisSortColumns[sort]; ok {
		return order
	}
	return thesisSortColumns["recent"]
}

// thesisWhere builds the WHERE clause for a listing. placeholder receives the
// 1-based argument position; like is the dialect's case-insensitive operator.
func thesisWhere(filter model.ThesisFilter, placeholder func(int) string, like string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	bind := func(value interface{}) string {
		args = append(args, value)
		return placeholder(len(args))
	}

	if filter.Status != "" {
		clauses = append(clauses, "status = "+bind(filter.Status))
	}
	if filter.CategoryID != "" {
		clauses = append(clauses, "category_id = "+bind(filter.CategoryID))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		parts := make([]string, 0, len(thesisSearchColumns))
		for _, column := range thesisSearchColumns {
			parts = append(parts, fmt.Sprintf("%s %s %s ESCAPE '\\'", column, like, bind(pattern)))
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
