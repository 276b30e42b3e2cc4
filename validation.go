package fileloader

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	msgInvalidSize      = "File size must be between 0.5KB and 2KB"
	msgInvalidType      = "Only text files are allowed"
	msgInvalidExtension = "Only .txt files are allowed"
	msgFilenameTooLong  = "Filename must be at most %d characters"
	msgInvalidEncoding  = "File must be UTF-8 encoded"
	msgSuspiciousSQL    = "File content contains multiple SQL command patterns"
	msgSuspiciousScript = "File content contains multiple suspicious script-like patterns"
	msgContentHint      = ". If this is a legitimate file, please check for any embedded scripts or SQL queries that might trigger this security check."
)

// FileRules holds the structural limits applied to an upload.
type FileRules struct {
	MinSizeBytes      int64
	MaxSizeBytes      int64
	AllowedMediaType  string
	AllowedExtensions []string
	MaxFilenameLength int
}

func DefaultFileRules() FileRules {
	return FileRules{
		MinSizeBytes:      512,
		MaxSizeBytes:      2048,
		AllowedMediaType:  "text/plain",
		AllowedExtensions: []string{"txt"},
		MaxFilenameLength: 255,
	}
}

// FileValidator checks size, media type, extension and filename length.
type FileValidator struct {
	rules FileRules
}

func NewFileValidator(rules FileRules) FileValidator {
	return FileValidator{rules: rules}
}

// Validate reports the first failing check in the order size, media type,
// extension, filename length.
func (v FileValidator) Validate(size int64, mediaType, filename string) error {
	if size < v.rules.MinSizeBytes || size > v.rules.MaxSizeBytes {
		return newValidationError(ReasonInvalidSize, msgInvalidSize)
	}

	if mediaType != v.rules.AllowedMediaType {
		return newValidationError(ReasonInvalidType, msgInvalidType)
	}

	if !v.allowedExtension(FileExtension(filename)) {
		return newValidationError(ReasonInvalidExtension, msgInvalidExtension)
	}

	if utf8.RuneCountInString(filename) > v.rules.MaxFilenameLength {
		return newValidationError(ReasonFilenameTooLong, fmt.Sprintf(msgFilenameTooLong, v.rules.MaxFilenameLength))
	}

	return nil
}

func (v FileValidator) allowedExtension(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range v.rules.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// SQL signatures. A single match of any of them rejects the content.
var sqlPatterns = compilePatterns("(?i)",
	`UNION\s+SELECT`,
	`INSERT\s+INTO.*VALUES`,
	`UPDATE.*SET`,
	`DROP\s+TABLE`,
	`DELETE\s+FROM`,
	`EXEC\s*\(`,
	`EXECUTE\s*\(`,
)

// Script signatures. Content is rejected when two or more distinct patterns match.
var scriptPatterns = compilePatterns("(?is)",
	`<script[\s>]`,
	`javascript:.*\(.*\)`,
	`data:text/html;base64,`,
	`onload\s*=`,
	`onerror\s*=`,
	`onclick\s*=`,
)

func compilePatterns(flags string, patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(flags+p))
	}
	return compiled
}

// ContentValidator scans decoded text for SQL and script payload signatures.
// It is a plain pattern match; technical text that quotes SQL or HTML may be rejected.
type ContentValidator struct{}

// Validate runs the SQL check first and the script check only when it passes.
func (ContentValidator) Validate(content string) error {
	if err := checkSQL(content); err != nil {
		return err
	}
	return checkScripts(content)
}

func checkSQL(content string) error {
	for _, p := range sqlPatterns {
		if p.MatchString(content) {
			return newValidationError(ReasonSuspiciousSQLContent, msgSuspiciousSQL+msgContentHint)
		}
	}
	return nil
}

func checkScripts(content string) error {
	matched := 0
	for _, p := range scriptPatterns {
		if !p.MatchString(content) {
			continue
		}
		matched++
		if matched > 1 {
			return newValidationError(ReasonSuspiciousScriptContent, msgSuspiciousScript+msgContentHint)
		}
	}
	return nil
}
