// Package local is the filesystem storage provider. Importing it registers
// the "local" provider with storage.New.
package local
