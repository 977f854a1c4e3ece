package taskstore

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/optassign/optassign/pkg/model"
)

// eligibilityFilter evaluates a compiled CEL expression against task
// snapshots. The expression sees a single `task` map variable and must yield
// a bool.
type eligibilityFilter struct {
	prg cel.Program
}

func newEligibilityFilter(expr string) (*eligibilityFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("task", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &eligibilityFilter{prg: prg}, nil
}

func (f *eligibilityFilter) allow(t *model.Task) (bool, error) {
	out, _, err := f.prg.Eval(map[string]interface{}{
		"task": taskVars(t),
	})
	if err != nil {
		return false, err
	}
	return out == types.True, nil
}

func taskVars(t *model.Task) map[string]interface{} {
	groups := make([]string, len(t.Groups))
	copy(groups, t.Groups)
	skills := make([]string, len(t.Skills))
	copy(skills, t.Skills)
	return map[string]interface{}{
		"id":          t.ID,
		"name":        t.Name,
		"status":      string(t.Status),
		"priority":    t.Priority,
		"groups":      groups,
		"skills":      skills,
		"assigned_to": t.AssignedTo,
		"pinned":      t.Pinned,
	}
}
