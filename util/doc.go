// Package util holds small helpers shared by configuration and request handling.
package util
