package installer

import (
	"os"
)

const (
	// CurrentDirectory is the site name that installs in place
	CurrentDirectory = "."
	// DevQualifier pins the package to its development branch
	DevQualifier = ":dev-main"
)

// Request holds the options of a single `new` invocation
type Request struct {
	Name    string // Site directory name, or CurrentDirectory
	Starter string // Starter template passed to jigsaw init
	Version string // Explicit version, ignored when Dev is set
	Dev     bool
	NoGit   bool
	Force   bool
}

// InPlace reports whether the site is installed into the current directory
func (r Request) InPlace() bool {
	return r.Name == CurrentDirectory
}

// VersionQualifier returns the suffix appended to the package name. The
// development branch wins over an explicit version; neither means latest.
func (r Request) VersionQualifier() string {
	if r.Dev {
		return DevQualifier
	}
	if r.Version != "" {
		return ":" + r.Version
	}
	return ""
}

// StarterOr returns the requested starter, falling back to fallback
func (r Request) StarterOr(fallback string) string {
	if r.Starter != "" {
		return r.Starter
	}
	return fallback
}

// ResolveTarget returns the directory a site called name is installed into
func ResolveTarget(cwd, name string) string {
	if name == CurrentDirectory {
		return cwd
	}
	return cwd + string(os.PathSeparator) + name
}
