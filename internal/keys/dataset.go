package keys

import (
	"path"
	"strings"
)

const outputRoot = "enriched"

// sanitizeKey replaces spaces with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

// split returns the directory and the file name without extension of an
// input object key.
func split(inputKey string) (dir, name string) {
	dir, file := path.Split(strings.TrimPrefix(inputKey, "/"))
	name = strings.TrimSuffix(file, path.Ext(file))
	return strings.TrimSuffix(dir, "/"), sanitizeKey(name)
}

// Output returns the canonical key of the enriched dataset for inputKey.
func Output(inputKey string) string {
	dir, name := split(inputKey)
	return path.Join(outputRoot, dir, name+".enriched.csv")
}

// Descriptions returns the key of the column-description document for inputKey.
func Descriptions(inputKey string) string {
	dir, name := split(inputKey)
	return path.Join(outputRoot, dir, name+".columns.json")
}
