package model

import "fmt"

// Selection is one entry of the installed-package selection list: the
// package name and its dpkg selection status ("install", "deinstall",
// "hold", "purge"). The snapshot store captures the full list at snapshot
// time and replays it during restore.
type Selection struct {
	// Name is the package name as dpkg reports it (may include an
	// architecture qualifier such as "libc6:amd64").
	Name string `json:"name"`

	// Status is the dpkg selection status word.
	Status string `json:"status"`
}

// String returns the selection in the dpkg --get-selections wire form:
// name and status separated by a single tab.
func (s Selection) String() string {
	return fmt.Sprintf("%s\t%s", s.Name, s.Status)
}
