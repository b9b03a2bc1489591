package cloudapi

import "strings"

// SplitPrefix splits a config `prefix` value of the form
// "bucket[/key-prefix]" (§3 Config, §6) into its bucket and
// key-prefix parts.
func SplitPrefix(prefix string) (bucket, keyPrefix string) {
	parts := strings.SplitN(prefix, "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// JoinKey joins a key-prefix and a relative key with a single slash.
func JoinKey(keyPrefix, rel string) string {
	if keyPrefix == "" {
		return rel
	}
	return keyPrefix + "/" + rel
}
