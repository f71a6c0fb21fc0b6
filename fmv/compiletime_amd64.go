//go:build amd64 && !amd64.v2

package fmv

var compileTimeLevel = AMD64v1
