//go:build amd64.v2 && !amd64.v3

package fmv

var compileTimeLevel = AMD64v2
