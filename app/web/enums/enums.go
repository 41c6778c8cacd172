// Package enums provides type-safe enumeration types for the web interface.
//
// The enum types are defined as unexported integer types in this file, and the go:generate
// directives invoke the go-pkgz/enum generator to create the exported types (*_enum.go) with
// string conversion, parsing, text marshaling and sql Scan/Value methods.
//
// Usage:
//
//	theme := enums.ThemeDark
//	fmt.Println(theme.String()) // "dark"
//
//	page, err := enums.ParsePage("jobs")
//	if err != nil {
//	    // handle invalid input
//	}
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/web/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type page -lower
//go:generate go run github.com/go-pkgz/enum@latest -type theme -lower

// page represents site sections shown in the navigation bar.
// This is an unexported type used only as input for the code generator.
// Use the exported Page type and its constants in actual code.
type page int

const (
	pageHome page = iota
	pageJobs
	pageResume
	pageImage
	pageContact
)

// theme represents UI themes.
// This is an unexported type used only as input for the code generator.
// Use the exported Theme type and its constants in actual code.
type theme int

const (
	themeLight theme = iota
	themeDark
)
