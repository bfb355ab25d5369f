// Package storage stages audio fragments while a request is in flight.
//
// The local provider (storage/local) writes to a directory so command-line
// engines can read fragments by path. The memory provider keeps everything
// in process.
package storage
