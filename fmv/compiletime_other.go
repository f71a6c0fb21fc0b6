//go:build !amd64 && !arm64

package fmv

var compileTimeLevel = AMD64v1
