// Package validation provides data validation for the vignette resolution API.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/salahab839/prescription-api/catalogparser/entities"
	"github.com/salahab839/prescription-api/interfaces"
	"github.com/salahab839/prescription-api/matcher"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Input validation: alphanumeric + French accents + safe punctuation
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+%/'àâäéèêëïîôöùûüÿç]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// CatalogValidatorImpl implements the interfaces.CatalogValidator interface
type CatalogValidatorImpl struct{}

// NewCatalogValidator creates a new catalog validator
func NewCatalogValidator() interfaces.CatalogValidator {
	return &CatalogValidatorImpl{}
}

// ValidateEntry checks if a catalog entry is structurally valid
func (v *CatalogValidatorImpl) ValidateEntry(e *entities.CatalogEntry) error {
	if e == nil {
		return fmt.Errorf("catalog entry is nil")
	}

	if strings.TrimSpace(e.Nom) == "" {
		return fmt.Errorf("empty nom")
	}

	if len(e.Nom) > 200 {
		return fmt.Errorf("nom too long: %d characters", len(e.Nom))
	}

	if len(e.Dosage) > 100 {
		return fmt.Errorf("dosage too long for %s: %d characters", e.Nom, len(e.Dosage))
	}

	if len(e.Presentation) > 100 {
		return fmt.Errorf("presentation too long for %s: %d characters", e.Nom, len(e.Presentation))
	}

	if len(e.Forme) > 100 {
		return fmt.Errorf("forme too long for %s: %d characters", e.Nom, len(e.Forme))
	}

	if e.Prix < 0 {
		return fmt.Errorf("negative prix for %s: %f", e.Nom, e.Prix)
	}

	return nil
}

// ReportQuality generates a data quality report for a loaded catalog.
// Duplicate full signatures matter because only the last entry with a given
// signature is reachable through the index.
func (v *CatalogValidatorImpl) ReportQuality(catalog []entities.CatalogEntry) *interfaces.QualityReport {
	report := &interfaces.QualityReport{
		DuplicateFullSignatures: []string{},
	}

	// Check 1: Find duplicate full signatures (report first 10)
	seen := make(map[string]bool)
	reported := make(map[string]bool)
	for _, entry := range catalog {
		sig := matcher.FullSignature(entry)
		if sig == "" {
			continue
		}
		if seen[sig] && !reported[sig] && len(report.DuplicateFullSignatures) < 10 {
			report.DuplicateFullSignatures = append(report.DuplicateFullSignatures, sig)
			reported[sig] = true
		}
		seen[sig] = true
	}

	// Check 2: Count entries without a price
	for _, entry := range catalog {
		if entry.Prix <= 0 {
			report.EntriesWithoutPrice++
		}
	}

	// Check 3: Count entries without a dosage
	for _, entry := range catalog {
		if strings.TrimSpace(entry.Dosage) == "" {
			report.EntriesWithoutDosage++
		}
	}

	// Check 4: Count entries without a forme
	for _, entry := range catalog {
		if strings.TrimSpace(entry.Forme) == "" {
			report.EntriesWithoutForme++
		}
	}

	return report
}

// ValidateInput validates user input strings with enhanced security
func (v *CatalogValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) < 3 {
		return fmt.Errorf("input too short: minimum 3 characters")
	}

	if len(input) > 100 {
		return fmt.Errorf("input too long: maximum 100 characters")
	}

	// Word count validation to prevent DoS attacks with many short words
	words := strings.Fields(input)
	if len(words) > 10 {
		return fmt.Errorf("search query too complex: maximum 10 words allowed")
	}

	// Check for potentially dangerous patterns using string matching
	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	// Allow only alphanumeric characters, spaces, and safe punctuation
	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, plus sign, and common French accented characters are allowed")
	}

	// Additional checks for repeated characters (potential DoS)
	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *CatalogValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
