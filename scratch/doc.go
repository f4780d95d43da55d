// Package scratch manages the temporary directories conversions use
// when talking to external tools. Each conversion acquires its own
// UUID-named directory and releases it with Close, so no artifacts
// outlive the conversion that created them and concurrent runs stay
// isolated from one another.
package scratch
