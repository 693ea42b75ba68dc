// Package system wraps the external commands the setup flows depend on:
// apt-get and dpkg for package state, systemctl for service control.
// Every driver runs its commands through the Runner interface so tests
// can substitute a scripted runner and assert the exact command lines.
package system
