//go:build arm64

package fmv

var compileTimeLevel = ARM64Neon
