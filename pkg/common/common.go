package common

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a time-ordered unique int64 identifier.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// Sha256Hash returns the lowercase hex SHA-256 digest of src.
func Sha256Hash(src string) string {
	h := sha256.New()
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MakeDir creates dir with parents when missing.
func MakeDir(path string) error {
	if FileExists(path) {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// Slugify lowercases s and collapses whitespace runs into single dashes.
func Slugify(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}

// IfEmptyStr returns defval when src is blank.
func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}
