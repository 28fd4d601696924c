package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ironsheep/box-augment/internal/background"
	"github.com/ironsheep/box-augment/internal/config"
	"github.com/ironsheep/box-augment/internal/imaging"
)

// Pipeline expressions describe a stage graph on one line:
//
//	0.2: identity ; 0.1: noise(mu=0, variance=100) ; 0.2: background(border=30) | noise ; 0.5: background
//
// Branches are separated by ";" and carry an optional "weight:" prefix.
// Within a branch, stages run left to right separated by "|". Stage
// arguments are numeric and default to the run configuration.

//nolint:govet // participle grammar tags are not standard struct tags
type exprGrammar struct {
	Branches []*branchGrammar `@@ ( ";" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type branchGrammar struct {
	Weight *float64        `( @Number ":" )?`
	Stages []*stageGrammar `@@ ( "|" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type stageGrammar struct {
	Name string        `@Ident`
	Args []*argGrammar `( "(" ( @@ ( "," @@ )* )? ")" )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type argGrammar struct {
	Key   string  `@Ident "="`
	Value float64 `@Number`
}

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[;:|(),=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var exprParser = participle.MustBuild[exprGrammar](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
)

// Expr is a parsed pipeline expression.
type Expr struct {
	Branches []BranchExpr `json:"branches"`
}

// BranchExpr is one alternative of an expression. Weighted is false when
// the branch had no weight prefix, in which case Weight is 1.
type BranchExpr struct {
	Weight   float64     `json:"weight"`
	Weighted bool        `json:"weighted"`
	Stages   []StageExpr `json:"stages"`
}

// StageExpr names a stage and its explicit arguments.
type StageExpr struct {
	Name string             `json:"name"`
	Args map[string]float64 `json:"args,omitempty"`
}

// String renders e back into expression syntax.
func (e *Expr) String() string {
	branches := make([]string, len(e.Branches))
	for i, b := range e.Branches {
		stages := make([]string, len(b.Stages))
		for j, s := range b.Stages {
			stages[j] = s.String()
		}
		branches[i] = strings.Join(stages, " | ")
		if b.Weighted {
			branches[i] = fmt.Sprintf("%g: %s", b.Weight, branches[i])
		}
	}
	return strings.Join(branches, " ; ")
}

// String renders s in expression syntax with arguments sorted by key.
func (s StageExpr) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	keys := make([]string, 0, len(s.Args))
	for k := range s.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = fmt.Sprintf("%s=%g", k, s.Args[k])
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(args, ", "))
}

// ParseExpr parses src without building any stages. Stage names and
// argument keys are checked against the known stages.
func ParseExpr(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.New("empty pipeline expression")
	}

	g, err := exprParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline expression %q: %w", src, err)
	}

	e := &Expr{Branches: make([]BranchExpr, len(g.Branches))}
	for i, gb := range g.Branches {
		b := BranchExpr{Weight: 1}
		if gb.Weight != nil {
			if *gb.Weight <= 0 {
				return nil, fmt.Errorf("branch %d: weight must be positive, got %g", i, *gb.Weight)
			}
			b.Weight, b.Weighted = *gb.Weight, true
		}
		for _, gs := range gb.Stages {
			s := StageExpr{Name: strings.ToLower(gs.Name)}
			keys, ok := stageArgs[s.Name]
			if !ok {
				return nil, fmt.Errorf("branch %d: unknown stage %q", i, gs.Name)
			}
			for _, a := range gs.Args {
				key := strings.ToLower(a.Key)
				if !contains(keys, key) {
					return nil, fmt.Errorf("branch %d: stage %s has no argument %q (want one of %s)",
						i, s.Name, a.Key, strings.Join(keys, ", "))
				}
				if s.Args == nil {
					s.Args = make(map[string]float64)
				}
				if _, dup := s.Args[key]; dup {
					return nil, fmt.Errorf("branch %d: stage %s: duplicate argument %q", i, s.Name, key)
				}
				s.Args[key] = a.Value
			}
			b.Stages = append(b.Stages, s)
		}
		e.Branches[i] = b
	}
	return e, nil
}

// stageArgs lists the arguments each stage accepts.
var stageArgs = map[string][]string{
	"identity":   nil,
	"background": {"border", "stddev"},
	"noise":      {"mu", "variance"},
	"tint":       {"magnitude"},
	"contrast":   {"min", "max"},
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Env supplies what stages need beyond their arguments.
type Env struct {
	Config  config.Config
	Pool    *background.Pool // required by background stages
	Palette imaging.Palette  // used by tint stages

	// OnBackground is installed as Observe on every background stage.
	OnBackground func(BackgroundReport)
}

// Build turns e into a runnable stage. A single unweighted branch becomes a
// plain *Pipeline; anything else becomes a *Choice of pipelines.
func Build(e *Expr, env Env) (Stage, error) {
	if len(e.Branches) == 0 {
		return nil, errors.New("pipeline expression has no branches")
	}

	branches := make([]Branch, len(e.Branches))
	for i, b := range e.Branches {
		p := New()
		for _, s := range b.Stages {
			st, err := buildStage(s, env)
			if err != nil {
				return nil, fmt.Errorf("branch %d: %w", i, err)
			}
			p.Append(st)
		}
		branches[i] = Branch{Weight: b.Weight, Stage: p}
	}

	if len(branches) == 1 && !e.Branches[0].Weighted {
		return branches[0].Stage, nil
	}
	return &Choice{Branches: branches}, nil
}

// Parse parses and builds src in one step.
func Parse(src string, env Env) (Stage, error) {
	e, err := ParseExpr(src)
	if err != nil {
		return nil, err
	}
	return Build(e, env)
}

func buildStage(s StageExpr, env Env) (Stage, error) {
	cfg := env.Config
	arg := func(key string, def float64) float64 {
		if v, ok := s.Args[key]; ok {
			return v
		}
		return def
	}

	switch s.Name {
	case "identity":
		return Identity{}, nil
	case "background":
		if env.Pool == nil {
			return nil, errors.New("background stage needs a background directory")
		}
		st := NewBackgroundStage(env.Pool, cfg)
		st.BorderMean = arg("border", cfg.BorderMean)
		st.BorderStdDev = arg("stddev", cfg.BorderStdDev)
		if st.BorderMean < 0 || st.BorderStdDev < 0 {
			return nil, fmt.Errorf("background: border and stddev must not be negative")
		}
		st.Observe = env.OnBackground
		return st, nil
	case "noise":
		st := NoiseStage{Mu: arg("mu", cfg.NoiseMu), Variance: arg("variance", cfg.NoiseVariance)}
		if st.Variance < 0 {
			return nil, fmt.Errorf("noise: variance must not be negative, got %g", st.Variance)
		}
		return st, nil
	case "tint":
		m := arg("magnitude", float64(cfg.TintMagnitude))
		if m < 0 || m > 255 {
			return nil, fmt.Errorf("tint: magnitude must be in [0, 255], got %g", m)
		}
		return TintStage{Magnitude: uint8(m), Palette: env.Palette}, nil
	case "contrast":
		st := ContrastStage{MinChange: arg("min", -0.2), MaxChange: arg("max", 0.2)}
		if st.MinChange < -1 || st.MaxChange > 1 || st.MinChange > st.MaxChange {
			return nil, fmt.Errorf("contrast: range [%g, %g] must lie within [-1, 1]", st.MinChange, st.MaxChange)
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown stage %q", s.Name)
}
