package shell

import "strings"

// HelpText lists every command. It is printed at startup and by "help".
var HelpText = buildHelp()

func buildHelp() string {
	var b strings.Builder
	b.WriteString("\nWhat would you like to do? Options:\n")
	for _, c := range commands {
		b.WriteString(" ")
		b.WriteString(c.usage)
		b.WriteString(" (")
		b.WriteString(c.summary)
		b.WriteString(")\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
