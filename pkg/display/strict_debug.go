//go:build debug

package display

// Debug builds treat an unencodable digit as a programming error.
const strictDigits = true
