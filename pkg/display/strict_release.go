//go:build !debug

package display

const strictDigits = false
