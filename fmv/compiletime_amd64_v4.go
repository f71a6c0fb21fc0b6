//go:build amd64.v4

package fmv

var compileTimeLevel = AMD64v4
