package cypher

import (
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed queries/*.cypher
var queriesFS embed.FS

var (
	registryOnce sync.Once
	registry     map[string]string
)

// Resolve returns the registered Cypher statement for a logical query name.
func Resolve(name string) (string, error) {
	registryOnce.Do(loadRegistry)
	statement, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	return statement, nil
}

// resolveRef treats refs containing whitespace as literal Cypher and
// everything else as a registered query name.
func resolveRef(ref string) (string, error) {
	if strings.ContainsAny(ref, " \t\n") {
		return ref, nil
	}
	return Resolve(ref)
}

func loadRegistry() {
	entries, err := queriesFS.ReadDir("queries")
	if err != nil {
		panic(fmt.Sprintf("embedded query registry unreadable: %v", err))
	}
	registry = make(map[string]string, len(entries))
	for _, entry := range entries {
		data, err := queriesFS.ReadFile("queries/" + entry.Name())
		if err != nil {
			panic(fmt.Sprintf("embedded query %s unreadable: %v", entry.Name(), err))
		}
		name := strings.TrimSuffix(entry.Name(), ".cypher")
		registry[name] = string(data)
	}
}
