package manifest

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	shapeOnce sync.Once
	shapeCtx  *cue.Context
	shapeDef  cue.Value
	shapeErr  error
)

// loadShape compiles the embedded schema once per process.
func loadShape() (*cue.Context, cue.Value, error) {
	shapeOnce.Do(func() {
		shapeCtx = cuecontext.New()
		schema := shapeCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := schema.Err(); err != nil {
			shapeErr = fmt.Errorf("compile manifest schema: %w", err)
			return
		}
		shapeDef = schema.LookupPath(cue.ParsePath("#Manifest"))
		if err := shapeDef.Err(); err != nil {
			shapeErr = fmt.Errorf("lookup #Manifest: %w", err)
		}
	})
	return shapeCtx, shapeDef, shapeErr
}

// CheckShape validates a migrated generic tree against the manifest schema.
// Every violation is reported in one *ShapeError.
func CheckShape(tree map[string]any) error {
	ctx, def, err := loadShape()
	if err != nil {
		return err
	}

	// The cue runtime is not safe for concurrent use.
	shapeMu.Lock()
	defer shapeMu.Unlock()

	val := ctx.Encode(tree)
	if err := val.Err(); err != nil {
		return &ShapeError{Violations: cueMessages(err)}
	}
	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ShapeError{Violations: cueMessages(err)}
	}
	return nil
}

var shapeMu sync.Mutex

func cueMessages(err error) []string {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return []string{err.Error()}
	}
	seen := make(map[string]struct{}, len(errs))
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := e.Path(); len(path) > 0 {
			msg = strings.Join(path, ".") + ": " + msg
		}
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return msgs
}
