package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// evalEnv evaluates a target's `env` expression into plain strings. The
// expression sees a `target` object carrying id, os, and arch, so values
// can branch on the platform, e.g.
//
//	env = {
//	  JEMALLOC_SYS_WITH_LG_PAGE = target.arch == "aarch64" ? "16" : "12"
//	}
func evalEnv(t *Target) (map[string]string, error) {
	if t.Env == nil {
		return nil, nil
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"target": cty.ObjectVal(map[string]cty.Value{
				"id":   cty.StringVal(t.ID),
				"os":   cty.StringVal(t.OS),
				"arch": cty.StringVal(t.Arch),
			}),
		},
	}

	val, diags := t.Env.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating env: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("env must be a map of strings, got %s", val.Type().FriendlyName())
	}

	env := make(map[string]string)
	for key, v := range val.AsValueMap() {
		str, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("env value %q: %w", key, err)
		}
		if str.IsNull() {
			return nil, fmt.Errorf("env value %q is null", key)
		}
		env[key] = str.AsString()
	}
	return env, nil
}
