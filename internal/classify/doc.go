// Package classify decides which catalog entry a single picked file
// represents.
//
// The decision walks a fixed precedence chain and stops at the first hit:
// exact byte size, the leading five digits of the byte size, then filename
// patterns in catalog declaration order. A file that survives the chain is
// unsupported. Files with no reported size skip both size strategies.
package classify
