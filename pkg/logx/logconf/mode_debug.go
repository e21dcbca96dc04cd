//go:build debug

package logconf

const developmentBuild = true
