// Package component defines lifecycle-managed infrastructure.
//
// Components are registered with a Registry, started in order at boot and
// stopped in reverse at shutdown. BaseLazyComponent covers resources that
// load on first use and need to report a loading state meanwhile.
package component
