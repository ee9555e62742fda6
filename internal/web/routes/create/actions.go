package create

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownAction = errors.New("unknown action")

type actionKind int

const (
	actionAddIngredient actionKind = iota + 1
	actionRemoveIngredient
	actionAddStep
	actionRemoveStep
	actionSubmit
)

// Action is the button that submitted the form.
type Action struct {
	kind  actionKind
	index int
}

// ParseAction reads an action value such as "ingredient.add",
// "step.remove.2" or "submit".
func ParseAction(raw string) (Action, error) {
	switch raw {
	case "ingredient.add":
		return Action{kind: actionAddIngredient}, nil
	case "step.add":
		return Action{kind: actionAddStep}, nil
	case "submit":
		return Action{kind: actionSubmit}, nil
	}

	for prefix, kind := range map[string]actionKind{
		"ingredient.remove.": actionRemoveIngredient,
		"step.remove.":       actionRemoveStep,
	} {
		rest, ok := strings.CutPrefix(raw, prefix)
		if !ok {
			continue
		}
		index, err := strconv.Atoi(rest)
		if err != nil || index < 0 {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
		}
		return Action{kind: kind, index: index}, nil
	}

	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

func (a Action) IsSubmit() bool {
	return a.kind == actionSubmit
}

func (a Action) String() string {
	switch a.kind {
	case actionAddIngredient:
		return "ingredient.add"
	case actionRemoveIngredient:
		return "ingredient.remove." + strconv.Itoa(a.index)
	case actionAddStep:
		return "step.add"
	case actionRemoveStep:
		return "step.remove." + strconv.Itoa(a.index)
	case actionSubmit:
		return "submit"
	}
	return "unknown"
}
