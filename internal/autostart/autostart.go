// Package autostart installs and removes the login item that starts the tray
// app when the user signs in.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Entry describes the program to start at login.
type Entry struct {
	Name string
	Exe  string
	Args []string
}

// Current is an entry for the running executable.
func Current(name string, args ...string) (Entry, error) {
	exe, err := os.Executable()
	if err != nil {
		return Entry{}, fmt.Errorf("locate executable: %w", err)
	}
	return Entry{Name: name, Exe: exe, Args: args}, nil
}

// Enable installs e, replacing an existing item with the same name.
func Enable(e Entry) error {
	if e.Name == "" || e.Exe == "" {
		return errors.New("autostart entry needs a name and an executable")
	}
	return enable(e)
}

// Disable removes the item. Removing a missing item is not an error.
func Disable(name string) error {
	path, err := itemPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Enabled reports whether the item exists.
func Enabled(name string) bool {
	path, err := itemPath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Path is where the item for name lives.
func Path(name string) (string, error) { return itemPath(name) }

func quoteArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func commandLine(e Entry) string {
	parts := []string{quoteArg(e.Exe)}
	for _, a := range e.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

// desktopEntry is the XDG autostart file body for e.
func desktopEntry(e Entry) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", e.Name)
	fmt.Fprintf(&b, "Exec=%s\n", commandLine(e))
	b.WriteString("Terminal=false\n")
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	return b.String()
}

// launchAgent is the macOS LaunchAgent plist for e.
func launchAgent(label string, e Entry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n")
	b.WriteString("<plist version=\"1.0\">\n<dict>\n")
	fmt.Fprintf(&b, "\t<key>Label</key>\n\t<string>%s</string>\n", xmlEscape(label))
	b.WriteString("\t<key>ProgramArguments</key>\n\t<array>\n")
	for _, a := range append([]string{e.Exe}, e.Args...) {
		fmt.Fprintf(&b, "\t\t<string>%s</string>\n", xmlEscape(a))
	}
	b.WriteString("\t</array>\n\t<key>RunAtLoad</key>\n\t<true/>\n</dict>\n</plist>\n")
	return b.String()
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
