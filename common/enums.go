// Enums shared by configuration, reports and command line. Kept separate from
// config so submission package does not depend on it.
package common

//go:generate go tool go-enum --marshal --names

// Format of grading report.
// ENUM(text, json, junit)
type ReportFormat int

func (f ReportFormat) Ext() string {
	switch f {
	case ReportFormatJson:
		return ".json"
	case ReportFormatJunit:
		return ".xml"
	default:
		return ".txt"
	}
}

// Kind of submission source.
// ENUM(file, directory, archive)
type SourceKind int
