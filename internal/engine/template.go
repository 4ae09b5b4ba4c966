package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/ethereum/go-ethereum/common"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// Context — контекст для разрешения аргументов.
//
// Используется в Go templates:
//   - {{ .Inputs.usdc }}
//   - {{ .Steps.vault.Address }}
//   - {{ .Network }}
type Context struct {
	// Inputs — входные параметры плана.
	Inputs map[string]any `json:"inputs"`

	// Steps — результаты уже задеплоенных шагов.
	Steps map[string]*StepContext `json:"steps"`

	// Network — имя сети, в которую идёт деплой.
	Network string `json:"network"`
}

// StepContext — задеплоенный шаг, доступный следующим шагам.
type StepContext struct {
	// Address — адрес контракта.
	Address common.Address `json:"address"`

	// Contract — имя контракта.
	Contract string `json:"contract"`

	// TxHash — хэш транзакции создания.
	TxHash common.Hash `json:"tx_hash"`
}

// NewContext создаёт новый контекст с входными параметрами.
func NewContext(inputs map[string]any, network string) *Context {
	if inputs == nil {
		inputs = make(map[string]any)
	}
	return &Context{
		Inputs:  inputs,
		Steps:   make(map[string]*StepContext),
		Network: network,
	}
}

// AddResult добавляет результат шага в контекст.
func (c *Context) AddResult(res *domain.Result) {
	c.Steps[res.StepID] = &StepContext{
		Address:  res.Address,
		Contract: res.Contract,
		TxHash:   res.TxHash,
	}
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если первый аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// checksum — приводит адрес к EIP-55 виду
	"checksum": func(s string) string {
		return common.HexToAddress(s).Hex()
	},

	"lower":   strings.ToLower,
	"upper":   strings.ToUpper,
	"trim":    strings.TrimSpace,
	"replace": strings.ReplaceAll,
}

// parseTemplate парсит шаблон с нашими функциями.
func parseTemplate(tmpl string) (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}
	return t, nil
}

// Render рендерит строковый шаблон с контекстом.
//
//	{{ .Inputs.usdc }}
//	{{ .Steps.vault.Address }}
func Render(tmpl string, ctx *Context) (string, error) {
	// Проверяем, содержит ли строка шаблонные выражения
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := parseTemplate(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

// RenderValue рендерит произвольное значение.
// Рекурсивно обрабатывает slice (аргументы-массивы).
func RenderValue(value any, ctx *Context) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, ctx)

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			rendered, err := RenderValue(val, ctx)
			if err != nil {
				return nil, err
			}
			result[i] = rendered
		}
		return result, nil

	default:
		// json.Number, bool, nil возвращаем как есть
		return value, nil
	}
}

// ResolveArgs разрешает аргументы шага.
//
// Ссылка {ref: id} заменяется адресом шага id из контекста,
// строки рендерятся как шаблоны, остальные литералы не меняются.
func ResolveArgs(step *domain.Step, ctx *Context) ([]any, error) {
	resolved := make([]any, len(step.Args))
	for i, arg := range step.Args {
		if arg.IsRef() {
			sc, ok := ctx.Steps[arg.Ref]
			if !ok {
				return nil, fmt.Errorf("arg %d: %w: %s", i, ErrUnresolvedReference, arg.Ref)
			}
			resolved[i] = sc.Address
			continue
		}

		v, err := RenderValue(arg.Value, ctx)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		resolved[i] = v
	}
	return resolved, nil
}

// CheckArgs разрешает аргументы всех шагов на пробном контексте:
// inputs переданы, вместо каждого предыдущего шага стоит заглушка
// с нулевым адресом. Ошибка, не зависящая от реальных адресов
// (опечатка в поле, неверный аргумент функции), возвращается как
// *PlanValidationError до первого деплоя.
func CheckArgs(plan *domain.Plan, inputs map[string]any) error {
	ctx := NewContext(inputs, "")
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if _, err := ResolveArgs(step, ctx); err != nil {
			return NewValidationError(i, step.ID, "args", err.Error(), err)
		}
		ctx.Steps[step.ID] = &StepContext{Contract: step.Contract}
	}
	return nil
}

// PlaceholderInputs возвращает значение для каждого объявленного input:
// default, если он есть, иначе нулевое значение типа.
func PlaceholderInputs(defs map[string]domain.InputDef) map[string]any {
	inputs := make(map[string]any, len(defs))
	for name, def := range defs {
		if def.Default != nil {
			inputs[name] = def.Default
			continue
		}
		switch def.Type {
		case "address":
			inputs[name] = common.Address{}.Hex()
		case "number":
			inputs[name] = json.Number("0")
		case "boolean":
			inputs[name] = false
		default:
			inputs[name] = ""
		}
	}
	return inputs
}

// templateRefs собирает ссылки на шаги и входные параметры из шаблона.
type templateRefs struct {
	steps  []string
	inputs []string
	err    error
}

// collectTemplateRefs разбирает шаблон и возвращает все .Steps.X и .Inputs.X.
func collectTemplateRefs(tmpl string) (*templateRefs, error) {
	refs := &templateRefs{}
	if !strings.Contains(tmpl, "{{") {
		return refs, nil
	}

	t, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	if t.Tree != nil {
		refs.walk(t.Tree.Root)
	}
	if refs.err != nil {
		return nil, refs.err
	}
	return refs, nil
}

// walk обходит дерево шаблона.
func (r *templateRefs) walk(node parse.Node) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			r.walk(child)
		}
	case *parse.ActionNode:
		r.walk(n.Pipe)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			r.walk(cmd)
		}
	case *parse.CommandNode:
		if r.indexCall(n) {
			return
		}
		for _, arg := range n.Args {
			r.walk(arg)
		}
	case *parse.FieldNode:
		r.field(n.Ident)
	case *parse.ChainNode:
		r.walk(n.Node)
	case *parse.IfNode:
		r.branch(&n.BranchNode)
	case *parse.RangeNode:
		r.branch(&n.BranchNode)
	case *parse.WithNode:
		r.branch(&n.BranchNode)
	case *parse.TemplateNode:
		r.walk(n.Pipe)
	}
}

func (r *templateRefs) branch(n *parse.BranchNode) {
	r.walk(n.Pipe)
	r.walk(n.List)
	r.walk(n.ElseList)
}

// field обрабатывает цепочку полей от корня контекста.
func (r *templateRefs) field(ident []string) {
	if len(ident) == 0 {
		return
	}
	switch ident[0] {
	case "Steps":
		if len(ident) < 2 {
			r.fail(fmt.Errorf("%w: .Steps must name a step", ErrInvalidReference))
			return
		}
		r.steps = append(r.steps, ident[1])
	case "Inputs":
		if len(ident) >= 2 {
			r.inputs = append(r.inputs, ident[1])
		}
	}
}

// indexCall распознаёт {{ index .Steps "id" ... }} и {{ index .Inputs "name" }}.
func (r *templateRefs) indexCall(n *parse.CommandNode) bool {
	if len(n.Args) < 3 {
		return false
	}
	id, ok := n.Args[0].(*parse.IdentifierNode)
	if !ok || id.Ident != "index" {
		return false
	}
	f, ok := n.Args[1].(*parse.FieldNode)
	if !ok || len(f.Ident) != 1 {
		return false
	}
	key, ok := n.Args[2].(*parse.StringNode)
	if !ok {
		return false
	}
	switch f.Ident[0] {
	case "Steps":
		r.steps = append(r.steps, key.Text)
	case "Inputs":
		r.inputs = append(r.inputs, key.Text)
	default:
		return false
	}
	for _, arg := range n.Args[3:] {
		r.walk(arg)
	}
	return true
}

func (r *templateRefs) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
