package repository

import (
	"strings"

	"gorm.io/gorm"

	"crm-api/internal/dto"
)

// paginate applies offset/limit for a normalized ListParams
func paginate(params dto.ListParams) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset()).Limit(params.Limit)
	}
}

// orderBy sorts by a whitelisted column, falling back to created_at desc.
// Ties are broken by id so pages are stable.
func orderBy(params dto.ListParams, allowed map[string]string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column, ok := allowed[params.Sort]
		if !ok {
			return db.Order("created_at DESC").Order("id DESC")
		}
		direction := "DESC"
		if params.Order == "asc" {
			direction = "ASC"
		}
		return db.Order(column + " " + direction).Order("id " + direction)
	}
}

// search matches q case-insensitively against any of columns.
// LOWER/LIKE is used instead of ILIKE so the query also runs on sqlite.
func search(q string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		q = strings.TrimSpace(q)
		if q == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// whereEq adds column = value when value is non-empty
func whereEq(column, value string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}

// selectSummary limits preloaded associations to the columns shown in lists
func selectSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

// listPage counts matching rows and loads one page into dest
func listPage(db *gorm.DB, params dto.ListParams, allowedSort map[string]string, dest interface{}, preloads ...string) (int64, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	query := db.Scopes(orderBy(params, allowedSort), paginate(params))
	for _, p := range preloads {
		query = query.Preload(p, selectSummary)
	}
	if err := query.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
