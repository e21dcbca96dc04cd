// Package proc answers two questions about the OS process table: which
// process is this, and how many processes run under a given name.
package proc
