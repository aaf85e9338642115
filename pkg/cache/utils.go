package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashKey generates MD5 hash of a key.
func HashKey(key string) string {
	hasher := md5.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashJSON hashes the JSON encoding of v. Struct field order keeps it stable.
func HashJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return HashKey(fmt.Sprintf("%v", v))
	}
	return HashKey(string(b))
}
