package upload

import (
	"strconv"
	"strings"
)

// Caption builds "<make> <model> <year> - <description>". Year and
// description are optional and their segments are omitted when absent.
func Caption(carMake, carModel string, year int, description string) string {
	parts := make([]string, 0, 3)
	if carMake != "" {
		parts = append(parts, carMake)
	}
	if carModel != "" {
		parts = append(parts, carModel)
	}
	if year > 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	caption := strings.Join(parts, " ")
	if description != "" {
		caption += " - " + description
	}
	return caption
}
