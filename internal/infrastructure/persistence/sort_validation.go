package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC.
// Anything but "asc" yields DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks the sort field against a whitelist and returns
// defaultField when it is empty or not allowed.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.ToLower(strings.TrimSpace(sortField))
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a whitelisted ORDER BY clause
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir)
}

// ProductSortFields contains allowed sort fields for products.
// "name" sorts on the English name column.
var ProductSortFields = map[string]bool{
	"created_at": true,
	"price":      true,
	"name":       true,
	"stock":      true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"total":      true,
	"status":     true,
	"number":     true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"name":          true,
	"email":         true,
	"last_login_at": true,
}

// CommonSortFields contains fields present on every table
var CommonSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
}
