// Package preflight verifies the runtime environment before a batch starts:
// directory permissions and the external binaries the selected strategies
// shell out to.
package preflight
