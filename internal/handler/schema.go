package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request body schemas.
const (
	schemaCreateSession = "create_session.json"
	schemaEnqueue       = "enqueue.json"
	schemaReorder       = "reorder.json"
	schemaMove          = "move.json"
	schemaCommand       = "command.json"
	schemaResearch      = "research.json"
	schemaMessage       = "message.json"
)

const maxBodySize = 64 << 10

var schemas = mustCompileSchemas()

func mustCompileSchemas() map[string]*jsonschema.Schema {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			panic(err)
		}
		if err := c.AddResource(e.Name(), bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("schema %s: %v", e.Name(), err))
		}
	}
	out := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		out[e.Name()] = c.MustCompile(e.Name())
	}
	return out
}

// decodeValid reads the body, validates it against the named schema and
// decodes it into v. An empty body is validated as {}.
func decodeValid(r *http.Request, schema string, v any) error {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	s, ok := schemas[schema]
	if !ok {
		return fmt.Errorf("unknown schema %s", schema)
	}
	if err := s.Validate(doc); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
