// Package editor provides line-oriented editing of system configuration
// files such as torrc, resolv.conf and proxychains4.conf.
//
// The editor works on whole lines only: it appends missing directives,
// uncomments disabled ones and removes conflicting ones, leaving every
// other line byte-for-byte untouched. It never parses file syntax beyond
// the line level, so it cannot misinterpret formats it does not know.
//
// All mutations are atomic (staged to a temporary file and renamed into
// place) and idempotent: running the same operation twice leaves the file
// in the same state and reports what happened through an Outcome value.
package editor
