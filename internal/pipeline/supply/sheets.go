package supply

import "strings"

// SheetRole is what a workbook sheet is used for.
type SheetRole string

const (
	RoleForecast  SheetRole = "forecast"
	RoleInventory SheetRole = "inventory"
	RoleDispatch  SheetRole = "dispatch"
	RoleOther     SheetRole = "other"
)

// SheetRule recognizes a sheet by name. Matching is case-sensitive.
type SheetRule struct {
	Role  SheetRole
	Match func(name string) bool
}

func nameContains(subs ...string) func(string) bool {
	return func(name string) bool {
		for _, s := range subs {
			if strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
}

// SheetRules are evaluated per role; a workbook's sheet for a role is the
// first sheet, in workbook order, that the role's rule accepts.
var SheetRules = []SheetRule{
	{RoleForecast, nameContains("Fcst Actual", "Forecast")},
	{RoleInventory, nameContains("StockACOL", "Stock")},
	{RoleDispatch, nameContains("Master Actual")},
}

// Header keywords per role.
var (
	forecastKeywords  = []string{"codigo", "producto", "enero", "febrero"}
	inventoryKeywords = []string{"material", "libre", "bloqueado"}
)

// SelectSheet returns the first sheet matching role.
func SelectSheet(sheets []string, role SheetRole) (string, bool) {
	for _, rule := range SheetRules {
		if rule.Role != role {
			continue
		}
		for _, name := range sheets {
			if rule.Match(name) {
				return name, true
			}
		}
	}
	return "", false
}

// ClassifySheet returns the first role whose rule accepts name.
func ClassifySheet(name string) SheetRole {
	for _, rule := range SheetRules {
		if rule.Match(name) {
			return rule.Role
		}
	}
	return RoleOther
}

func keywordsFor(role SheetRole) []string {
	switch role {
	case RoleForecast:
		return forecastKeywords
	case RoleInventory:
		return inventoryKeywords
	default:
		return nil
	}
}
