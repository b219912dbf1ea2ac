//go:build js && wasm

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"syscall/js"
	"time"

	"gdmigrate/config"
	"gdmigrate/internal/adapter/diagnostics"
	"gdmigrate/internal/adapter/memstore"
	"gdmigrate/internal/adapter/rewrite"
	"gdmigrate/internal/domain"
	"gdmigrate/internal/port"
	"gdmigrate/internal/usecase"
)

var (
	state    *memstore.MemoryStore
	pipeline *usecase.Pipeline
)

func init() {
	state = memstore.NewMemoryStore()
	p, err := usecase.NewPipeline(config.DefaultConfig())
	if err != nil {
		panic(err)
	}
	pipeline = p
}

func main() {
	c := make(chan struct{})

	js.Global().Set("gdMigrate", js.FuncOf(migrateContent))
	js.Global().Set("gdCheck", js.FuncOf(checkContent))
	js.Global().Set("gdRules", js.FuncOf(listRules))
	js.Global().Set("gdReset", js.FuncOf(reset))

	<-c
}

// migrateContent returns the migrated source and its report. Sources seen
// clean before in this session are returned untouched without rerunning.
func migrateContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: gdMigrate(filename, content)")
	}

	filename := args[0].String()
	content := args[1].String()
	hash := contentHash(content)

	if rec, ok, _ := state.GetFile(filename); ok && rec.Hash == hash {
		return makeResult(map[string]interface{}{
			"filename": filename,
			"output":   content,
			"changed":  false,
			"cached":   true,
		})
	}

	sf, err := pipeline.Run(filename, content)
	if err != nil {
		return makeError(err.Error())
	}
	out := sf.Render()
	if len(sf.Report.Issues) == 0 {
		_ = state.PutFile(filename, port.FileRecord{Hash: contentHash(out), CheckedAt: time.Now()})
	}

	return makeResult(map[string]interface{}{
		"filename": filename,
		"output":   out,
		"changed":  out != content,
		"fixes":    sf.Report.Fixes(),
		"counters": sf.Report.Counters,
		"issues":   sf.Report.Issues,
	})
}

func checkContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: gdCheck(filename, content)")
	}

	filename := args[0].String()
	sf, err := pipeline.Run(filename, args[1].String())
	if err != nil {
		return makeError(err.Error())
	}

	collector := diagnostics.NewCollector()
	collector.Consume(domain.FileResult{
		Path:       filename,
		Rel:        filename,
		Lines:      sf.Texts(),
		Categories: sf.Categories(),
		Report:     sf.Report,
	})
	return makeResult(map[string]interface{}{
		"filename": filename,
		"records":  collector.Records(),
	})
}

func listRules(this js.Value, args []js.Value) interface{} {
	rules := rewrite.DefaultRules()
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return makeResult(map[string]interface{}{
		"rules": names,
	})
}

func reset(this js.Value, args []js.Value) interface{} {
	state = memstore.NewMemoryStore()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func contentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
