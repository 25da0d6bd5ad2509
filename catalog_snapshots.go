package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// buildCatalogSnapshot records the live tool catalog with a schema hash per
// tool so catalog drift between releases shows up in a plain diff.
func buildCatalogSnapshot(server *ServerConfig, catalog *toolCatalog, generatedAt time.Time) map[string]any {
	descriptors := catalog.Descriptors()
	tools := make([]map[string]any, 0, len(descriptors))
	for _, descriptor := range descriptors {
		record := copyStringAnyMap(descriptor)
		if hash := hashSchema(record); hash != "" {
			record["schemaHash"] = hash
		}
		tools = append(tools, record)
	}
	snapshot := buildInitializeResult(server)
	snapshot["generatedAt"] = generatedAt.UTC().Format(time.RFC3339Nano)
	snapshot["tools"] = tools
	return snapshot
}

func hashSchema(record map[string]any) string {
	data, err := json.Marshal(record)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeCatalogSnapshot writes the snapshot under the state home, keeping up
// to history timestamped copies next to it.
func writeCatalogSnapshot(target string, payload any, history int, stamp time.Time) (string, error) {
	resolved, err := resolveGuardedPath(target)
	if err != nil {
		return "", err
	}
	home := stateHome()
	if _, err := requireHomePath(home, resolved); err != nil {
		home = configHome()
	}
	return writeSnapshotWithHistory(home, resolved, payload, history, stamp)
}

func writeSnapshotWithHistory(home, basePath string, payload any, historyCount int, stamp time.Time) (string, error) {
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	resolvedBase, err := mkdirAllUnder(home, basePath)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')
	if err := writeAtomic(resolvedBase, data); err != nil {
		return "", err
	}
	if historyCount > 0 {
		ts := stamp.UTC().Format("20060102-150405")
		stamped := fmt.Sprintf("%s.%s.json", strings.TrimSuffix(resolvedBase, ".json"), ts)
		if err := writeAtomic(stamped, data); err != nil {
			return "", err
		}
		if err := pruneHistory(resolvedBase, historyCount); err != nil {
			return "", err
		}
	}
	return resolvedBase, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func pruneHistory(basePath string, keep int) error {
	if keep < 0 {
		return nil
	}
	dir := filepath.Dir(basePath)
	base := filepath.Base(basePath)
	prefix := strings.TrimSuffix(base, ".json") + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var history []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == base || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		history = append(history, filepath.Join(dir, name))
	}
	if len(history) <= keep {
		return nil
	}
	sort.Strings(history)
	for _, stale := range history[:len(history)-keep] {
		_ = os.Remove(stale)
	}
	return nil
}
