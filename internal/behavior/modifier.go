package behavior

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// modifierEpilogue binds the script's result to a well-known symbol.
const modifierEpilogue = "\nout := modify(base, ctx)\n"

// Modifier is a compiled tengo expression that rescales a personality value
// per decision. The script must define `modify(base, ctx)` and return a
// number. Evaluation is defensive: any compile-time gap, runtime error, or
// non-numeric result leaves the input value unchanged so one malformed
// profile cannot abort the tick for every other agent.
type Modifier struct {
	source   string
	compiled *tengo.Compiled
}

// CompileModifier parses and compiles a modifier script.
func CompileModifier(source string) (*Modifier, error) {
	script := tengo.NewScript([]byte(source + modifierEpilogue))
	script.SetImports(stdlib.GetModuleMap("math"))
	if err := script.Add("base", 0.0); err != nil {
		return nil, fmt.Errorf("behavior: bind base: %w", err)
	}
	if err := script.Add("ctx", map[string]any{}); err != nil {
		return nil, fmt.Errorf("behavior: bind ctx: %w", err)
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("behavior: compile modifier: %w", err)
	}
	return &Modifier{source: source, compiled: compiled}, nil
}

// Evaluate runs the modifier against base and ctx. On any failure the base
// value is returned unchanged.
func (m *Modifier) Evaluate(base float64, ctx Context) float64 {
	if m == nil || m.compiled == nil {
		return base
	}
	run := m.compiled.Clone()
	if err := run.Set("base", base); err != nil {
		return base
	}
	if err := run.Set("ctx", contextVars(ctx)); err != nil {
		return base
	}
	if err := run.Run(); err != nil {
		return base
	}
	value := run.Get("out")
	if value == nil {
		return base
	}
	switch value.ValueType() {
	case "float":
		return value.Float()
	case "int":
		return float64(value.Int())
	default:
		return base
	}
}

func contextVars(ctx Context) map[string]any {
	return map[string]any{
		"allies_nearby":     ctx.AlliesNearby,
		"enemies_nearby":    ctx.EnemiesNearby,
		"target_visible":    ctx.TargetVisible,
		"target_distance":   ctx.TargetDistance,
		"health_fraction":   ctx.HealthFraction,
		"time_since_damage": ctx.TimeSinceDamage,
		"stuck":             ctx.Stuck,
	}
}
