// Package process runs external binaries such as the whisper CLI and
// ffprobe with bounded output and graceful cancellation.
package process
