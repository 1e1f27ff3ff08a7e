package scope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
)

// maxGuardLength is the maximum allowed length for a guard expression.
const maxGuardLength = 1024

// maxGuardCost is the CEL runtime cost limit to keep guard evaluation
// bounded.
const maxGuardCost = 100_000

// guardEvalTimeout bounds a single guard evaluation.
const guardEvalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// GuardInput is the request view a guard expression evaluates over.
type GuardInput struct {
	Method      string
	Path        string
	ClientIP    string
	Subject     string
	Teams       []string
	Permissions []string
}

// Guard is a compiled deployment-configured CEL expression evaluated
// as the final gate of the pipeline. It can only restrict access:
// requests that fail every earlier gate never reach it, and a false
// result denies.
type Guard struct {
	prg cel.Program
}

// NewGuard compiles a guard expression. The expression must evaluate
// to a boolean over the GuardInput variables: method, path, client_ip,
// subject, teams, permissions.
func NewGuard(expression string) (*Guard, error) {
	if expression == "" {
		return nil, errors.New("guard expression is empty")
	}
	if len(expression) > maxGuardLength {
		return nil, fmt.Errorf("guard expression too long: %d characters (max %d)", len(expression), maxGuardLength)
	}

	env, err := cel.NewEnv(
		cel.Variable("method", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("client_ip", cel.StringType),
		cel.Variable("subject", cel.StringType),
		cel.Variable("teams", cel.ListType(cel.StringType)),
		cel.Variable("permissions", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create guard environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("guard compilation failed: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("guard expression must return a boolean, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxGuardCost),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("guard program creation failed: %w", err)
	}

	return &Guard{prg: prg}, nil
}

// Allow evaluates the guard for one request.
func (g *Guard) Allow(ctx context.Context, in GuardInput) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, guardEvalTimeout)
	defer cancel()

	activation := map[string]any{
		"method":      in.Method,
		"path":        in.Path,
		"client_ip":   in.ClientIP,
		"subject":     in.Subject,
		"teams":       in.Teams,
		"permissions": in.Permissions,
	}

	result, _, err := g.prg.ContextEval(ctx, activation)
	if err != nil {
		return false, fmt.Errorf("guard evaluation failed: %w", err)
	}

	allowed, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("guard expression did not return a boolean, got %T", result.Value())
	}
	return allowed, nil
}
