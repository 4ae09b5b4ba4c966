package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/nodus-deploy/internal/domain"
)

// Node — шаг плана в графе ссылок.
type Node struct {
	// Step — определение шага из Plan.
	Step *domain.Step

	// Index — позиция шага в плане.
	Index int

	// DependsOn — шаги, на адреса которых ссылается этот шаг.
	DependsOn []*Node

	// Dependents — шаги, которые ссылаются на адрес этого шага.
	Dependents []*Node
}

// ID возвращает ID шага.
func (n *Node) ID() string {
	return n.Step.ID
}

// Graph — граф ссылок между шагами плана.
//
// В отличие от произвольного DAG, порядок выполнения здесь задан планом:
// граф нужен, чтобы проверить, что все рёбра ведут строго назад,
// и чтобы показать оператору, какие адреса куда подставляются.
type Graph struct {
	// Nodes — узлы в порядке плана.
	Nodes []*Node

	index map[string]*Node
}

// BuildGraph строит граф ссылок и проверяет инвариант упорядоченности.
//
// Возвращает *PlanValidationError, если шаг ссылается на себя,
// на более поздний шаг или на несуществующий шаг.
func BuildGraph(plan *domain.Plan) (*Graph, error) {
	g := &Graph{
		Nodes: make([]*Node, 0, len(plan.Steps)),
		index: make(map[string]*Node, len(plan.Steps)),
	}

	// Первый проход: создаём все узлы
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if _, exists := g.index[step.ID]; exists {
			return nil, NewValidationError(i, step.ID, "id",
				fmt.Sprintf("duplicate step ID: %s", step.ID), ErrDuplicateStepID)
		}
		node := &Node{Step: step, Index: i}
		g.Nodes = append(g.Nodes, node)
		g.index[step.ID] = node
	}

	// Второй проход: связываем узлы по ссылкам
	for _, node := range g.Nodes {
		refs, err := StepReferences(node.Step)
		if err != nil {
			return nil, NewValidationError(node.Index, node.ID(), "args", err.Error(), err)
		}

		for _, ref := range refs {
			dep, exists := g.index[ref]
			switch {
			case ref == node.ID():
				return nil, NewValidationError(node.Index, node.ID(), "args",
					"step references its own address", ErrSelfReference)
			case !exists:
				return nil, NewValidationError(node.Index, node.ID(), "args",
					fmt.Sprintf("references unknown step: %s", ref), ErrUnknownReference)
			case dep.Index > node.Index:
				return nil, NewValidationError(node.Index, node.ID(), "args",
					fmt.Sprintf("references step %s which is deployed later (#%d)", ref, dep.Index),
					ErrForwardReference)
			}
			g.addEdge(dep, node)
		}
	}

	return g, nil
}

// addEdge добавляет ребро, пропуская дубликаты.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep == from {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
}

// StepReferences возвращает отсортированный список ID шагов,
// на адреса которых ссылаются аргументы шага.
func StepReferences(step *domain.Step) ([]string, error) {
	seen := make(map[string]bool)
	for _, arg := range step.Args {
		if arg.IsRef() {
			seen[arg.Ref] = true
			continue
		}
		refs, err := valueRefs(arg.Value)
		if err != nil {
			return nil, err
		}
		for _, id := range refs.steps {
			seen[id] = true
		}
	}
	return sortedKeys(seen), nil
}

// InputReferences возвращает входные параметры, используемые шаблонами шага.
func InputReferences(step *domain.Step) ([]string, error) {
	seen := make(map[string]bool)
	for _, arg := range step.Args {
		if arg.IsRef() {
			continue
		}
		refs, err := valueRefs(arg.Value)
		if err != nil {
			return nil, err
		}
		for _, name := range refs.inputs {
			seen[name] = true
		}
	}
	return sortedKeys(seen), nil
}

// valueRefs собирает ссылки из литерала (строки или вложенного массива).
func valueRefs(value any) (*templateRefs, error) {
	switch v := value.(type) {
	case string:
		return collectTemplateRefs(v)
	case []any:
		all := &templateRefs{}
		for _, item := range v {
			refs, err := valueRefs(item)
			if err != nil {
				return nil, err
			}
			all.steps = append(all.steps, refs.steps...)
			all.inputs = append(all.inputs, refs.inputs...)
		}
		return all, nil
	default:
		return &templateRefs{}, nil
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
