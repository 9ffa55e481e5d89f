package version

import "fmt"

const (
	Version = "v0.1.0"

	colorReset    = "\033[0m"
	colorCyanBold = "\033[36;1m"
)

// asciiArtTpl returns the ASCII art of sqlitetest.
func asciiArtTpl() string {
	asciiArt := `
           _ _ _       _            _
 ___  __ _| (_) |_ ___| |_ ___  ___| |_
/ __|/ _' | | | __/ _ \ __/ _ \/ __| __|
\__ \ (_| | | | ||  __/ ||  __/\__ \ |_
|___/\__, |_|_|\__\___|\__\___||___/\__|
        |_|
%s ` + Version + `
Deterministic SQLite test tables and lock checks`

	asciiArt = asciiArt[1:]                          // This just removes the first newline character
	asciiArt = colorCyanBold + asciiArt + colorReset // Add color to the ASCII art

	return asciiArt
}

// CLIVersion returns the version banner of the sqlitetest CLI.
func CLIVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "CLI")
}
