package command

import (
	"os"
	"path/filepath"

	"github.com/alessio/shellescape"
)

const (
	// ComposerPhar is the locally vendored Composer looked up in the target directory
	ComposerPhar = "composer.phar"
	// JigsawBinary is where Composer installs the jigsaw executable, relative to the site
	JigsawBinary = "./vendor/bin/jigsaw"
)

// ComposerExecutable returns how Composer is invoked from dir. A composer.phar
// inside dir wins over the globally resolved composer binary.
func ComposerExecutable(dir, composer, php string) string {
	phar := filepath.Join(dir, ComposerPhar)
	if info, err := os.Stat(phar); err == nil && !info.IsDir() {
		return shellescape.Quote(php) + " " + shellescape.Quote(phar)
	}
	return composer
}

// ComposerRequire builds the composer require line for pkg pinned by qualifier
func ComposerRequire(composer, pkg, qualifier string) string {
	return composer + " require " + shellescape.Quote(pkg+qualifier) + " --no-interaction"
}

// JigsawInit builds the jigsaw init line. The starter is the trailing
// argument and is left empty when no starter was requested.
func JigsawInit(starter string) string {
	line := JigsawBinary + " init "
	if starter != "" {
		line += shellescape.Quote(starter)
	}
	return line
}

// GitBootstrap builds the commands that create a repository with one commit
// on the given branch
func GitBootstrap(commitMessage, branch string) []string {
	return []string{
		"git init -q",
		"git add .",
		"git commit -q -m " + shellescape.Quote(commitMessage),
		"git branch -M " + shellescape.Quote(branch),
	}
}
