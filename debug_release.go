//go:build !gcache_debug

package gcache

const debugging = false

func assert(bool, string) {}
