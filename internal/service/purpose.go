package service

import (
	"fmt"
	"strings"
)

type purposeEntry struct {
	keyword string
	purpose string
}

// Ordered keyword tables for the business purpose hints embedded in document
// content. Matching is case insensitive substring with first match wins, so
// more specific keywords must come before generic ones.
var tablePurposes = []purposeEntry{
	{"user", "user accounts and profiles"},
	{"customer", "customer information and details"},
	{"order", "purchase orders and transactions"},
	{"product", "product catalog and inventory"},
	{"invoice", "billing and invoice records"},
	{"payment", "payment transactions and methods"},
	{"employee", "staff and employee records"},
	{"category", "classification and categorization data"},
	{"log", "system logs and audit trails"},
	{"session", "user sessions and authentication"},
	{"address", "location and address information"},
	{"review", "product or service reviews"},
	{"cart", "shopping cart and basket data"},
	{"student", "student information and academic records"},
	{"course", "course information and curriculum data"},
	{"teacher", "teacher profiles and assignments"},
	{"grade", "academic grades and assessments"},
	{"class", "class schedules and information"},
	{"school", "school or institution data"},
}

var columnPurposes = []purposeEntry{
	{"id", "unique identifier"},
	{"name", "name or title"},
	{"email", "email address"},
	{"password", "authentication credentials"},
	{"phone", "phone number"},
	{"address", "physical address"},
	{"date", "date information"},
	{"time", "time information"},
	{"price", "monetary amount"},
	{"amount", "quantity or monetary value"},
	{"status", "current state or status"},
	{"created", "creation timestamp"},
	{"updated", "last modification timestamp"},
	{"deleted", "deletion timestamp"},
	{"active", "active/inactive status"},
	{"description", "detailed description"},
	{"title", "title or heading"},
	{"age", "age information"},
	{"grade", "grade or score"},
	{"level", "level or rank"},
	{"department", "department or division"},
}

func inferTablePurpose(tableName string) string {
	lower := strings.ToLower(tableName)
	for _, entry := range tablePurposes {
		if strings.Contains(lower, entry.keyword) {
			return entry.purpose
		}
	}
	return fmt.Sprintf("data related to %s", tableName)
}

func inferColumnPurpose(columnName string) string {
	lower := strings.ToLower(columnName)
	for _, entry := range columnPurposes {
		if strings.Contains(lower, entry.keyword) {
			return entry.purpose
		}
	}
	return fmt.Sprintf("information about %s", columnName)
}

// Collections and fields reuse the table and column tables, the naming
// conventions carry over.
func inferCollectionPurpose(collectionName string) string {
	return inferTablePurpose(collectionName)
}

func inferFieldPurpose(fieldName string) string {
	return inferColumnPurpose(fieldName)
}
